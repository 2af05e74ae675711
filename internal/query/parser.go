package query

import (
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// argContext says whose argument list is being parsed; it only changes the
// wording of diagnostics.
type argContext int

const (
	contextFunction argContext = iota
	contextStruct
)

func (c argContext) String() string {
	if c == contextStruct {
		return "struct"
	}
	return "function"
}

func (c argContext) nameWhat() string {
	if c == contextStruct {
		return "field name"
	}
	return "argument name"
}

// Parse compiles one query line into a call tree.
// All failures are *diag.Error scoped to this query.
func Parse(line string) (*Call, error) {
	p := &parser{tokens: Lex(line)}
	return p.parseCall()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *parser) next() Token {
	tok := p.peek()
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

// parseCall parses: <name> ( <Args>? )
func (p *parser) parseCall() (*Call, error) {
	first := p.peek()
	switch first.Kind {
	case TokenLParen, TokenEOF:
		return nil, diag.At(diag.CodeEmptyFunctionName, first.Index, "empty function name")
	case TokenWord:
	default:
		return nil, missingPlaceholder(first.Index, "function name")
	}
	p.next()

	// "get Id(" - a name is a single contiguous token.
	if p.peek().Kind == TokenWord && p.peekAt(1).Kind == TokenLParen {
		return nil, diag.At(diag.CodeInvalidFunctionName, first.Index,
			"function name contains whitespace: '%s %s'", first.Text, p.peek().Text)
	}
	if !ir.IsIdentifier(first.Text) {
		return nil, diag.At(diag.CodeInvalidFunctionName, first.Index,
			"invalid function name '%s'", first.Text)
	}

	if err := p.expect(TokenLParen, "("); err != nil {
		return nil, err
	}

	call := &Call{Function: first.Text}
	if p.peek().Kind == TokenRParen {
		p.next()
	} else {
		args, err := p.parseArgs(contextFunction, TokenRParen, ")")
		if err != nil {
			return nil, err
		}
		call.Args = args
	}

	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, diag.At(diag.CodeUnexpectedToken, tok.Index,
			"unexpected token '%s' (token #%d) after end of call", tok.Describe(), tok.Index)
	}
	return call, nil
}

// parseArgs parses "<Arg> (, <Arg>)*" followed by the closing token.
func (p *parser) parseArgs(ctx argContext, closer TokenKind, closerText string) ([]Arg, error) {
	var args []Arg
	for {
		arg, err := p.parseArg(ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.peek()
		switch tok.Kind {
		case TokenComma:
			p.next()
		case closer:
			p.next()
			return args, nil
		case TokenWord:
			// Another argument follows without a separator.
			return nil, missingLiteral(tok.Index, ",")
		default:
			return nil, missingLiteral(tok.Index, closerText)
		}
	}
}

// parseArg parses "<name> = <Value>".
func (p *parser) parseArg(ctx argContext) (Arg, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenWord:
		if ir.IsIntLiteral(tok.Text) {
			return Arg{}, noArgName(ctx, tok)
		}
		if follow := p.peekAt(1); follow.Kind != TokenEquals {
			return Arg{}, missingLiteral(follow.Index, "=")
		}
		if !ir.IsIdentifier(tok.Text) {
			return Arg{}, diag.At(diag.CodeMissingQueryToken, tok.Index,
				"missing query token #%d (%s): '%s' is not a name", tok.Index, ctx.nameWhat(), tok.Text)
		}
		p.next() // name
		p.next() // =
		value, err := p.parseValue()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Name: tok.Text, Index: tok.Index, Value: value}, nil

	case TokenString, TokenUnterminatedString, TokenLBrace:
		return Arg{}, noArgName(ctx, tok)

	default:
		return Arg{}, missingPlaceholder(tok.Index, ctx.nameWhat())
	}
}

// parseValue parses an int literal, quoted string or struct literal.
func (p *parser) parseValue() (Literal, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenString:
		p.next()
		return StringLiteral{Text: tok.Text, Index: tok.Index}, nil

	case TokenUnterminatedString:
		return nil, diag.At(diag.CodeUnquotedString, tok.Index,
			"unquoted string '%s' (token #%d): missing closing quote", tok.Describe(), tok.Index)

	case TokenLBrace:
		return p.parseStruct("", tok.Index)

	case TokenWord:
		if ir.IsIntLiteral(tok.Text) {
			p.next()
			return IntLiteral{Text: tok.Text, Index: tok.Index}, nil
		}
		switch p.peekAt(1).Kind {
		case TokenLBrace:
			if !ir.IsIdentifier(tok.Text) {
				return nil, diag.At(diag.CodeMissingQueryToken, tok.Index,
					"missing query token #%d (type name): '%s' is not a name", tok.Index, tok.Text)
			}
			p.next()
			return p.parseStruct(tok.Text, tok.Index)
		case TokenEquals:
			// "x = id = 200": the struct literal lost its opening brace.
			return nil, missingLiteral(tok.Index, "{")
		}
		return nil, diag.At(diag.CodeUnquotedString, tok.Index,
			"unquoted string '%s' (token #%d)", tok.Text, tok.Index)

	default:
		return nil, missingPlaceholder(tok.Index, "value")
	}
}

// parseStruct parses "{ <Args>? }"; the optional type name is already consumed.
func (p *parser) parseStruct(typeName string, index int) (Literal, error) {
	if err := p.expect(TokenLBrace, "{"); err != nil {
		return nil, err
	}
	lit := StructLiteral{TypeName: typeName, Index: index}
	if p.peek().Kind == TokenRBrace {
		p.next()
		return lit, nil
	}
	fields, err := p.parseArgs(contextStruct, TokenRBrace, "}")
	if err != nil {
		return nil, err
	}
	lit.Fields = fields
	return lit, nil
}

func (p *parser) expect(kind TokenKind, literal string) error {
	tok := p.peek()
	if tok.Kind != kind {
		return missingLiteral(tok.Index, literal)
	}
	p.next()
	return nil
}

func noArgName(ctx argContext, tok Token) *diag.Error {
	return diag.At(diag.CodeNoArgName, tok.Index,
		"no %s arg name for value '%s' (token #%d)", ctx, tok.Describe(), tok.Index)
}

func missingLiteral(index int, literal string) *diag.Error {
	return diag.At(diag.CodeMissingQueryToken, index, "missing query token #%d ('%s')", index, literal)
}

func missingPlaceholder(index int, what string) *diag.Error {
	return diag.At(diag.CodeMissingQueryToken, index, "missing query token #%d (%s)", index, what)
}
