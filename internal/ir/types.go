package ir

import (
	"fmt"
	"unicode"
)

// IsIdentifier reports whether s is a valid struct, field, function or
// parameter name: a letter or underscore followed by letters, digits or
// underscores. Schemas and queries share this rule.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// Kind identifies the shape of a type reference.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindString
	KindStruct
)

var kindNames = map[Kind]string{
	KindInt32:  "int32",
	KindInt64:  "int64",
	KindUint32: "uint32",
	KindUint64: "uint64",
	KindString: "string",
	KindStruct: "struct",
}

// primitiveKinds maps schema type names to primitive kinds.
var primitiveKinds = map[string]Kind{
	"int32":  KindInt32,
	"int64":  KindInt64,
	"uint32": KindUint32,
	"uint64": KindUint64,
	"string": KindString,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInteger reports whether k is one of the four integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt32, KindInt64, KindUint32, KindUint64:
		return true
	}
	return false
}

// PrimitiveKind returns the primitive kind named by a schema type name.
func PrimitiveKind(name string) (Kind, bool) {
	k, ok := primitiveKinds[name]
	return k, ok
}

// TypeRef is a reference to either a primitive type or a declared struct.
// TypeRefs are comparable with ==; equality is structural for primitives and
// by name for structs.
type TypeRef struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"` // struct name, empty for primitives
}

// Primitive returns a TypeRef for a primitive kind.
func Primitive(kind Kind) TypeRef {
	return TypeRef{Kind: kind}
}

// StructRef returns a TypeRef naming a declared struct.
func StructRef(name string) TypeRef {
	return TypeRef{Kind: KindStruct, Name: name}
}

// IsStruct reports whether t references a struct.
func (t TypeRef) IsStruct() bool {
	return t.Kind == KindStruct
}

// Equal reports whether two type references denote the same type.
func (t TypeRef) Equal(other TypeRef) bool {
	return t == other
}

// String renders the type as it is spelled in schema source.
func (t TypeRef) String() string {
	if t.IsStruct() {
		return t.Name
	}
	return t.Kind.String()
}

// FieldDecl is a named, typed slot: a struct field or a function parameter.
type FieldDecl struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// StructDecl is a declared struct. Field order is declaration order and
// fixes the output formatting order.
type StructDecl struct {
	Name   string      `json:"name"`
	Fields []FieldDecl `json:"fields"`
}

// Field looks up a field by name.
func (s *StructDecl) Field(name string) (FieldDecl, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// FunctionDecl is a declared remote function.
type FunctionDecl struct {
	Name   string      `json:"name"`
	Return TypeRef     `json:"return"`
	Params []FieldDecl `json:"params"`
}

// Param looks up a parameter by name.
func (f *FunctionDecl) Param(name string) (FieldDecl, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return FieldDecl{}, false
}

// Schema is the compiled set of struct and function declarations.
// Built once per session by the schema compiler; read-only afterwards.
type Schema struct {
	structs       map[string]*StructDecl
	structOrder   []string
	functions     map[string]*FunctionDecl
	functionOrder []string
}

// NewSchema builds a Schema from declarations in source order.
// It performs no validation; the compiler is responsible for that.
func NewSchema(structs []StructDecl, functions []FunctionDecl) *Schema {
	s := &Schema{
		structs:   make(map[string]*StructDecl, len(structs)),
		functions: make(map[string]*FunctionDecl, len(functions)),
	}
	for i := range structs {
		decl := structs[i]
		s.structs[decl.Name] = &decl
		s.structOrder = append(s.structOrder, decl.Name)
	}
	for i := range functions {
		decl := functions[i]
		s.functions[decl.Name] = &decl
		s.functionOrder = append(s.functionOrder, decl.Name)
	}
	return s
}

// Struct looks up a struct declaration by name.
func (s *Schema) Struct(name string) (*StructDecl, bool) {
	decl, ok := s.structs[name]
	return decl, ok
}

// Function looks up a function declaration by name.
func (s *Schema) Function(name string) (*FunctionDecl, bool) {
	decl, ok := s.functions[name]
	return decl, ok
}

// Structs returns struct declarations in declaration order.
func (s *Schema) Structs() []*StructDecl {
	out := make([]*StructDecl, 0, len(s.structOrder))
	for _, name := range s.structOrder {
		out = append(out, s.structs[name])
	}
	return out
}

// Functions returns function declarations in declaration order.
func (s *Schema) Functions() []*FunctionDecl {
	out := make([]*FunctionDecl, 0, len(s.functionOrder))
	for _, name := range s.functionOrder {
		out = append(out, s.functions[name])
	}
	return out
}

// IsEmpty reports whether the schema declares nothing.
func (s *Schema) IsEmpty() bool {
	return len(s.structOrder) == 0 && len(s.functionOrder) == 0
}
