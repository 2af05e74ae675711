// Package binder resolves a parsed query against a compiled schema.
//
// Binding is the only step that knows both the free-form literal tree and the
// declared types. It produces an ir.CallRequest whose values are guaranteed
// to satisfy the schema: every declared parameter and field is present
// exactly once and every integer is within its kind's range.
package binder

import (
	"errors"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
	"github.com/roach88/schemarepl/internal/query"
)

// Bind resolves call against schema. All failures are *diag.Error scoped to
// the current query.
func Bind(call *query.Call, schema *ir.Schema) (ir.CallRequest, error) {
	fn, ok := schema.Function(call.Function)
	if !ok {
		return ir.CallRequest{}, diag.New(diag.CodeNonExistingFunction,
			"non-existing function '%s'", call.Function)
	}

	b := &binder{schema: schema}
	values, err := b.bindSlots(fn.Params, call.Args, owner{kind: "function", name: fn.Name, lookup: fn.Param})
	if err != nil {
		return ir.CallRequest{}, err
	}

	req := ir.CallRequest{Function: fn, Args: make([]ir.NamedValue, 0, len(fn.Params))}
	for _, p := range fn.Params {
		req.Args = append(req.Args, ir.NamedValue{Name: p.Name, Value: values[p.Name]})
	}
	return req, nil
}

// owner names the function or struct whose slots are being bound.
type owner struct {
	kind   string // "function" or "struct"
	name   string
	lookup func(name string) (ir.FieldDecl, bool)
}

type binder struct {
	schema *ir.Schema
}

// bindSlots matches supplied arguments to declared slots (parameters or
// fields). Supplied order is free; the result covers every slot.
func (b *binder) bindSlots(slots []ir.FieldDecl, args []query.Arg, o owner) (map[string]ir.Value, error) {
	values := make(map[string]ir.Value, len(slots))
	for _, arg := range args {
		slot, ok := o.lookup(arg.Name)
		if !ok {
			if o.kind == "struct" {
				return nil, diag.At(diag.CodeInvalidArgName, arg.Index,
					"no such field '%s' in struct '%s'", arg.Name, o.name)
			}
			return nil, diag.At(diag.CodeInvalidArgName, arg.Index,
				"invalid argument name '%s' for function '%s'", arg.Name, o.name)
		}
		if _, dup := values[arg.Name]; dup {
			return nil, diag.At(diag.CodeDuplicateArgument, arg.Index,
				"duplicate argument '%s' for %s '%s'", arg.Name, o.kind, o.name)
		}
		v, err := b.bindValue(slot, arg.Value)
		if err != nil {
			return nil, err
		}
		values[arg.Name] = v
	}

	for _, slot := range slots {
		if _, ok := values[slot.Name]; !ok {
			return nil, diag.New(diag.CodeMissingArgument,
				"missing argument '%s' for %s '%s'", slot.Name, o.kind, o.name)
		}
	}
	return values, nil
}

func (b *binder) bindValue(slot ir.FieldDecl, lit query.Literal) (ir.Value, error) {
	want := slot.Type
	switch {
	case want.Kind.IsInteger():
		il, ok := lit.(query.IntLiteral)
		if !ok {
			return nil, mismatch(slot, lit)
		}
		v, _, err := ir.ParseInt(want.Kind, il.Text)
		if err != nil {
			return nil, withIndex(err, il.Index)
		}
		return v, nil

	case want.Kind == ir.KindString:
		sl, ok := lit.(query.StringLiteral)
		if !ok {
			return nil, mismatch(slot, lit)
		}
		return ir.Str(sl.Text), nil

	case want.IsStruct():
		sl, ok := lit.(query.StructLiteral)
		if !ok {
			return nil, mismatch(slot, lit)
		}
		if sl.TypeName != "" && sl.TypeName != want.Name {
			return nil, diag.At(diag.CodeTypeMismatch, sl.Index,
				"type mismatch for '%s': expected %s, got %s", slot.Name, want.Name, sl.TypeName)
		}
		decl, ok := b.schema.Struct(want.Name)
		if !ok {
			// Unreachable for schemas produced by the compiler.
			return nil, diag.At(diag.CodeTypeMismatch, sl.Index, "unknown struct '%s'", want.Name)
		}
		fields, err := b.bindSlots(decl.Fields, sl.Fields, owner{kind: "struct", name: decl.Name, lookup: decl.Field})
		if err != nil {
			return nil, err
		}
		return ir.Struct{Decl: decl, Fields: fields}, nil
	}
	return nil, mismatch(slot, lit)
}

func mismatch(slot ir.FieldDecl, lit query.Literal) *diag.Error {
	return diag.At(diag.CodeTypeMismatch, lit.Pos(),
		"type mismatch for '%s': expected %s, got %s", slot.Name, slot.Type, describe(lit))
}

func describe(lit query.Literal) string {
	switch l := lit.(type) {
	case query.IntLiteral:
		return "integer " + l.Text
	case query.StringLiteral:
		return "string \"" + l.Text + "\""
	case query.StructLiteral:
		if l.TypeName != "" {
			return "struct " + l.TypeName
		}
		return "struct literal"
	default:
		return "value"
	}
}

// withIndex attaches a token position to a range diagnostic.
func withIndex(err error, index int) error {
	var de *diag.Error
	if errors.As(err, &de) && de.Index == diag.NoIndex {
		cp := *de
		cp.Index = index
		return &cp
	}
	return err
}
