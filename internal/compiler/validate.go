package compiler

import (
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// Validate resolves parsed declarations into IR declarations.
// Returns all errors found (does not fail-fast), in source order.
//
// Checks performed:
//   - struct and function names are unique across the schema
//   - field names are unique within a struct, parameter names within a function
//   - every type name is a primitive or a declared struct
//   - no type name refers to a function
func validate(decls []decl) ([]ir.StructDecl, []ir.FunctionDecl, []error) {
	var errs []error

	structNames := make(map[string]bool)
	functionNames := make(map[string]bool)
	for _, d := range decls {
		name := d.Name.Text
		if structNames[name] || functionNames[name] {
			errs = append(errs, diag.At(diag.CodeDuplicateDeclaration, d.Name.Index,
				"duplicate declaration '%s' (token #%d)", name, d.Name.Index))
			continue
		}
		if d.Kind == declStruct {
			structNames[name] = true
		} else {
			functionNames[name] = true
		}
	}

	resolve := func(tok Token, owner string) (ir.TypeRef, error) {
		if kind, ok := ir.PrimitiveKind(tok.Text); ok {
			return ir.Primitive(kind), nil
		}
		if structNames[tok.Text] {
			return ir.StructRef(tok.Text), nil
		}
		if functionNames[tok.Text] {
			return ir.TypeRef{}, diag.At(diag.CodeFunctionUsedAsType, tok.Index,
				"function '%s' used as a type in '%s' (token #%d)", tok.Text, owner, tok.Index)
		}
		return ir.TypeRef{}, diag.At(diag.CodeUnknownType, tok.Index,
			"unknown type '%s' in '%s' (token #%d)", tok.Text, owner, tok.Index)
	}

	resolveSlots := func(d decl, what string) []ir.FieldDecl {
		seen := make(map[string]bool)
		var out []ir.FieldDecl
		for _, slot := range d.Slots {
			if seen[slot.Name.Text] {
				errs = append(errs, diag.At(diag.CodeDuplicateDeclaration, slot.Name.Index,
					"duplicate %s '%s' in '%s' (token #%d)", what, slot.Name.Text, d.Name.Text, slot.Name.Index))
				continue
			}
			seen[slot.Name.Text] = true
			t, err := resolve(slot.Type, d.Name.Text)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, ir.FieldDecl{Name: slot.Name.Text, Type: t})
		}
		return out
	}

	var (
		structs   []ir.StructDecl
		functions []ir.FunctionDecl
		declared  = make(map[string]bool)
	)
	for _, d := range decls {
		if declared[d.Name.Text] {
			continue // already reported as duplicate
		}
		declared[d.Name.Text] = true

		switch d.Kind {
		case declStruct:
			structs = append(structs, ir.StructDecl{
				Name:   d.Name.Text,
				Fields: resolveSlots(d, "field"),
			})
		case declFunction:
			ret, err := resolve(d.Return, d.Name.Text)
			if err != nil {
				errs = append(errs, err)
			}
			functions = append(functions, ir.FunctionDecl{
				Name:   d.Name.Text,
				Return: ret,
				Params: resolveSlots(d, "parameter"),
			})
		}
	}

	return structs, functions, errs
}
