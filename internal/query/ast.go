package query

// Literal is an unresolved query value.
//
// This is a sealed interface - only types in this package implement it.
type Literal interface {
	// Pos returns the token index where the literal starts.
	Pos() int

	literalNode() // Marker method - seals interface to this package
}

// IntLiteral is a bare decimal integer, optionally negative. Text is kept
// verbatim; range checking happens once the expected kind is known.
type IntLiteral struct {
	Text  string
	Index int
}

func (IntLiteral) literalNode() {}

// Pos implements Literal.
func (l IntLiteral) Pos() int { return l.Index }

// StringLiteral is a double-quoted string; Text excludes the quotes.
type StringLiteral struct {
	Text  string
	Index int
}

func (StringLiteral) literalNode() {}

// Pos implements Literal.
func (l StringLiteral) Pos() int { return l.Index }

// StructLiteral is "{ field=value, ... }" with an optional leading type name.
// When TypeName is empty the type is inferred from context.
type StructLiteral struct {
	TypeName string
	Index    int
	Fields   []Arg
}

func (StructLiteral) literalNode() {}

// Pos implements Literal.
func (l StructLiteral) Pos() int { return l.Index }

// Arg is a named argument or struct field: name = value.
type Arg struct {
	Name  string
	Index int
	Value Literal
}

// Call is a parsed function call.
type Call struct {
	Function string
	Args     []Arg
}
