// Package ir provides the type system and value model for schemarepl.
//
// This package contains the schema model (structs, functions, type
// references), integer range tables, bound values and their canonical wire
// encoding. Every other internal package imports ir; ir imports only diag.
// This keeps the type system the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Integer values are exact (math/big); no floats anywhere
//   - A Schema is immutable once built
//   - Struct type identity is by declared name
//   - Canonical JSON is the only wire serialization
package ir
