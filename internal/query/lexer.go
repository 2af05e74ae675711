package query

import "unicode"

// TokenKind classifies query tokens.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenString
	TokenUnterminatedString
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenEquals
	TokenComma
)

var punctuation = map[rune]TokenKind{
	'(': TokenLParen,
	')': TokenRParen,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'=': TokenEquals,
	',': TokenComma,
}

// Token is a lexed query token. For strings Text excludes the quotes.
type Token struct {
	Kind  TokenKind
	Text  string
	Index int
}

// Lex splits a query line into tokens. It never fails: an opening quote with
// no closing quote becomes a TokenUnterminatedString holding the rest of the
// line, so earlier syntax errors are still reported first. The returned slice
// ends with a TokenEOF whose Index equals the number of real tokens.
func Lex(line string) []Token {
	var (
		tokens []Token
		runes  = []rune(line)
	)

	emit := func(kind TokenKind, text string) {
		tokens = append(tokens, Token{Kind: kind, Text: text, Index: len(tokens)})
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if kind, ok := punctuation[r]; ok {
			emit(kind, string(r))
			i++
			continue
		}
		if r == '"' {
			end := i + 1
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			if end == len(runes) {
				emit(TokenUnterminatedString, string(runes[i+1:]))
				i = end
				continue
			}
			emit(TokenString, string(runes[i+1:end]))
			i = end + 1
			continue
		}

		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		emit(TokenWord, string(runes[start:i]))
	}

	tokens = append(tokens, Token{Kind: TokenEOF, Index: len(tokens)})
	return tokens
}

func isWordRune(r rune) bool {
	if unicode.IsSpace(r) || r == '"' {
		return false
	}
	_, punct := punctuation[r]
	return !punct
}

// Describe renders a token for diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case TokenEOF:
		return "end of query"
	case TokenString:
		return `"` + t.Text + `"`
	case TokenUnterminatedString:
		return `"` + t.Text
	default:
		return t.Text
	}
}
