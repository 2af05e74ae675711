package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestLex_Call(t *testing.T) {
	tokens := Lex(`getId(person={id=-5,name="a b"})`)
	assert.Equal(t, []TokenKind{
		TokenWord, TokenLParen, TokenWord, TokenEquals, TokenLBrace,
		TokenWord, TokenEquals, TokenWord, TokenComma,
		TokenWord, TokenEquals, TokenString, TokenRBrace, TokenRParen, TokenEOF,
	}, kinds(tokens))
	assert.Equal(t, "-5", tokens[7].Text)
	assert.Equal(t, "a b", tokens[11].Text)
	assert.Equal(t, 14, tokens[14].Index)
}

func TestLex_UnterminatedString(t *testing.T) {
	tokens := Lex(`f(x="cool, y=1)`)
	require.Len(t, tokens, 6)
	assert.Equal(t, TokenUnterminatedString, tokens[4].Kind)
	assert.Equal(t, "cool, y=1)", tokens[4].Text)
	assert.Equal(t, `"cool, y=1)`, tokens[4].Describe())
}

func TestLex_BareWordKeepsSymbols(t *testing.T) {
	tokens := Lex(`email=cool@gmail.com}`)
	require.Len(t, tokens, 5)
	assert.Equal(t, "cool@gmail.com", tokens[2].Text)
	assert.Equal(t, TokenRBrace, tokens[3].Kind)
}

func TestLex_EmptyString(t *testing.T) {
	tokens := Lex(`""`)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[0].Kind)
	assert.Equal(t, "", tokens[0].Text)
}
