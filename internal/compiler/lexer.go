package compiler

import "unicode"

// TokenKind classifies schema tokens.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenLBrace
	TokenRBrace
	TokenSemicolon
	TokenArrow
)

// Keywords.
const (
	KeywordStruct = "struct"
	KeywordFn     = "fn"
)

// Token is a lexed schema token. Index is the zero-based position in the
// token stream and is what diagnostics report.
type Token struct {
	Kind  TokenKind
	Text  string
	Index int
	Line  int
	Col   int
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	return t.Kind == TokenWord && (t.Text == KeywordStruct || t.Text == KeywordFn)
}

// IsName reports whether the token is a non-keyword word.
func (t Token) IsName() bool {
	return t.Kind == TokenWord && !t.IsKeyword()
}

// Lex splits schema source into tokens. It never fails: any run of
// characters that is not whitespace or punctuation is a word, and words are
// checked for identifier syntax by the parser. The returned slice always ends
// with a TokenEOF whose Index equals the number of real tokens.
func Lex(src string) []Token {
	var (
		tokens []Token
		runes  = []rune(src)
		line   = 1
		col    = 1
	)

	emit := func(kind TokenKind, text string, l, c int) {
		tokens = append(tokens, Token{Kind: kind, Text: text, Index: len(tokens), Line: l, Col: c})
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\n':
			line++
			col = 1
			i++
		case unicode.IsSpace(r):
			col++
			i++
		case r == '{':
			emit(TokenLBrace, "{", line, col)
			col++
			i++
		case r == '}':
			emit(TokenRBrace, "}", line, col)
			col++
			i++
		case r == ';':
			emit(TokenSemicolon, ";", line, col)
			col++
			i++
		case r == '-' && i+1 < len(runes) && runes[i+1] == '>':
			emit(TokenArrow, "->", line, col)
			col += 2
			i += 2
		default:
			start, startCol := i, col
			for i < len(runes) && isWordRune(runes, i) {
				i++
				col++
			}
			emit(TokenWord, string(runes[start:i]), line, startCol)
		}
	}

	tokens = append(tokens, Token{Kind: TokenEOF, Index: len(tokens), Line: line, Col: col})
	return tokens
}

func isWordRune(runes []rune, i int) bool {
	r := runes[i]
	if unicode.IsSpace(r) || r == '{' || r == '}' || r == ';' {
		return false
	}
	if r == '-' && i+1 < len(runes) && runes[i+1] == '>' {
		return false
	}
	return true
}
