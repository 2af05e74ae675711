package ir

import (
	"math/big"
)

// Value is a sealed interface representing a bound value.
// Only Int, Str and Struct implement this.
type Value interface {
	// Type returns the type the value was bound to.
	Type() TypeRef

	value() // Sealed - only these types implement it
}

// Int is an integer bound to one of the integer kinds. Its magnitude is
// always within the kind's range; construct it with CheckRange or ParseInt.
type Int struct {
	Kind Kind
	v    *big.Int
}

func (Int) value() {}

// Type implements Value.
func (i Int) Type() TypeRef {
	return Primitive(i.Kind)
}

// Big returns a copy of the integer value.
func (i Int) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// String renders the value as plain decimal.
func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

// Str is a bound string value.
type Str string

func (Str) value() {}

// Type implements Value.
func (Str) Type() TypeRef {
	return Primitive(KindString)
}

// Struct is a bound struct value. Fields covers exactly the declared fields.
type Struct struct {
	Decl   *StructDecl
	Fields map[string]Value
}

func (Struct) value() {}

// Type implements Value.
func (s Struct) Type() TypeRef {
	return StructRef(s.Decl.Name)
}

// Field returns the value of a declared field.
func (s Struct) Field(name string) (Value, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// NamedValue is a bound call argument.
type NamedValue struct {
	Name  string
	Value Value
}

// CallRequest is a fully bound call ready for the call channel.
type CallRequest struct {
	// Function is the declared function being invoked.
	Function *FunctionDecl

	// Args holds one bound value per declared parameter, in declaration order.
	Args []NamedValue
}
