package compiler

import (
	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// Placeholders used when the missing token is a name whose text cannot be
// known.
const (
	expectStructName   = "struct name"
	expectFunctionName = "function name"
	expectTypeName     = "type name"
	expectReturnType   = "return type"
	expectFieldName    = "field name"
	expectParamName    = "parameter name"
)

// declKind distinguishes parsed declarations.
type declKind int

const (
	declStruct declKind = iota
	declFunction
)

// slotDecl is a parsed "<Type> <name>;" slot, unresolved.
type slotDecl struct {
	Type Token
	Name Token
}

// decl is a parsed struct or function declaration, unresolved.
type decl struct {
	Kind   declKind
	Name   Token
	Return Token      // functions only
	Slots  []slotDecl // struct fields or function parameters
}

// parser is a recursive-descent parser over a token slice.
type parser struct {
	tokens []Token
	pos    int

	// structNames holds every name introduced by "struct <Name>" anywhere in
	// the source. It lets one-word slots be classified before forward
	// declarations are parsed.
	structNames map[string]bool
}

func newParser(tokens []Token) *parser {
	p := &parser{tokens: tokens, structNames: make(map[string]bool)}
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Kind == TokenWord && tokens[i].Text == KeywordStruct && tokens[i+1].IsName() {
			p.structNames[tokens[i+1].Text] = true
		}
	}
	return p
}

// parse parses a token stream produced by Lex into declarations.
func parse(tokens []Token) ([]decl, error) {
	p := newParser(tokens)
	var decls []decl
	for p.peek().Kind != TokenEOF {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
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

func (p *parser) parseDecl() (decl, error) {
	tok := p.peek()
	if tok.Kind == TokenWord {
		switch tok.Text {
		case KeywordStruct:
			return p.parseStruct()
		case KeywordFn:
			return p.parseFunction()
		}
		// A bare name directly followed by "{" or "->" is a declaration
		// whose keyword was dropped, not a misspelled keyword.
		switch p.peekAt(1).Kind {
		case TokenLBrace:
			return decl{}, missingLiteral(tok.Index, KeywordStruct)
		case TokenArrow:
			return decl{}, missingLiteral(tok.Index, KeywordFn)
		}
	}
	return decl{}, diag.At(diag.CodeInvalidKeyword, tok.Index,
		"invalid keyword '%s' (token #%d): expected '%s' or '%s'",
		describe(tok), tok.Index, KeywordStruct, KeywordFn)
}

// parseStruct parses: struct <Name> { (<Type> <field>;)* }
func (p *parser) parseStruct() (decl, error) {
	p.next() // struct
	name, err := p.expectName(expectStructName)
	if err != nil {
		return decl{}, err
	}
	slots, err := p.parseBody(expectFieldName)
	if err != nil {
		return decl{}, err
	}
	return decl{Kind: declStruct, Name: name, Slots: slots}, nil
}

// parseFunction parses: fn <name> -> <ReturnType> { (<Type> <param>;)* }
func (p *parser) parseFunction() (decl, error) {
	p.next() // fn
	name, err := p.expectName(expectFunctionName)
	if err != nil {
		return decl{}, err
	}
	if _, err := p.expect(TokenArrow, "->"); err != nil {
		return decl{}, err
	}
	ret, err := p.expectName(expectReturnType)
	if err != nil {
		return decl{}, err
	}
	slots, err := p.parseBody(expectParamName)
	if err != nil {
		return decl{}, err
	}
	return decl{Kind: declFunction, Name: name, Return: ret, Slots: slots}, nil
}

// parseBody parses "{ slot* }".
func (p *parser) parseBody(nameWhat string) ([]slotDecl, error) {
	if _, err := p.expect(TokenLBrace, "{"); err != nil {
		return nil, err
	}
	var slots []slotDecl
	for {
		tok := p.peek()
		switch {
		case tok.Kind == TokenRBrace:
			p.next()
			return slots, nil
		case tok.Kind == TokenEOF || tok.IsKeyword():
			return nil, missingLiteral(tok.Index, "}")
		}
		slot, err := p.parseSlot(nameWhat)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
}

// parseSlot parses "<Type> <name>;".
//
// When only one word precedes the terminator the missing token is
// ambiguous: a known type name means the slot name was dropped, anything
// else means the type was.
func (p *parser) parseSlot(nameWhat string) (slotDecl, error) {
	first := p.peek()
	if !first.IsName() {
		return slotDecl{}, missingPlaceholder(first.Index, expectTypeName)
	}
	second := p.peekAt(1)
	if !second.IsName() {
		if p.isKnownType(first.Text) {
			return slotDecl{}, missingPlaceholder(second.Index, nameWhat)
		}
		return slotDecl{}, missingPlaceholder(first.Index, expectTypeName)
	}

	typeTok, err := p.expectName(expectTypeName)
	if err != nil {
		return slotDecl{}, err
	}
	nameTok, err := p.expectName(nameWhat)
	if err != nil {
		return slotDecl{}, err
	}
	if _, err := p.expect(TokenSemicolon, ";"); err != nil {
		return slotDecl{}, err
	}
	return slotDecl{Type: typeTok, Name: nameTok}, nil
}

func (p *parser) isKnownType(name string) bool {
	if _, ok := ir.PrimitiveKind(name); ok {
		return true
	}
	return p.structNames[name]
}

func (p *parser) expect(kind TokenKind, literal string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return Token{}, missingLiteral(tok.Index, literal)
	}
	return p.next(), nil
}

func (p *parser) expectName(what string) (Token, error) {
	tok := p.peek()
	if !tok.IsName() {
		return Token{}, missingPlaceholder(tok.Index, what)
	}
	if !ir.IsIdentifier(tok.Text) {
		return Token{}, diag.At(diag.CodeMissingSchemaToken, tok.Index,
			"missing schema token #%d (%s): '%s' is not an identifier", tok.Index, what, tok.Text)
	}
	return p.next(), nil
}

func missingLiteral(index int, literal string) *diag.Error {
	return diag.At(diag.CodeMissingSchemaToken, index, "missing schema token #%d ('%s')", index, literal)
}

func missingPlaceholder(index int, what string) *diag.Error {
	return diag.At(diag.CodeMissingSchemaToken, index, "missing schema token #%d (%s)", index, what)
}

func describe(tok Token) string {
	if tok.Kind == TokenEOF {
		return "end of input"
	}
	return tok.Text
}
