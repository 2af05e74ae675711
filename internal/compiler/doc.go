// Package compiler turns schema source text into an immutable ir.Schema.
//
// Compilation runs in three passes:
//
//	[lex] → tokens → [parse] → declarations → [validate] → ir.Schema
//
// Whitespace is insignificant between tokens and never required. Every
// failure is a *diag.Error; the first one found is returned and is fatal to
// the session.
package compiler
