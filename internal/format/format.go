// Package format renders bound values and diagnostics as output lines.
package format

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/schemarepl/internal/ir"
)

// ErrorPrefix starts every diagnostic line.
const ErrorPrefix = "Error: "

// Value renders v: integers as plain decimal, strings double-quoted with
// their content unchanged except for control characters, structs as
// Type{f1=v1, f2=v2} in declared field order. The result is always one line.
func Value(v ir.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v ir.Value) {
	switch val := v.(type) {
	case ir.Int:
		b.WriteString(val.String())
	case ir.Str:
		b.WriteByte('"')
		writeString(b, string(val))
		b.WriteByte('"')
	case ir.Struct:
		b.WriteString(val.Decl.Name)
		b.WriteByte('{')
		for i, f := range val.Decl.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteByte('=')
			fv, _ := val.Field(f.Name)
			writeValue(b, fv)
		}
		b.WriteByte('}')
	case nil:
		b.WriteString("<nil>")
	}
}

// writeString copies s, escaping control characters the way strconv.Quote
// does ("\n", "\t", "\x00").
func writeString(b *strings.Builder, s string) {
	for _, r := range s {
		if !unicode.IsControl(r) {
			b.WriteRune(r)
			continue
		}
		q := strconv.QuoteRune(r)
		b.WriteString(q[1 : len(q)-1])
	}
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Error renders a diagnostic line. Multi-line messages are folded onto one
// line so the output stays one line per query.
func Error(err error) string {
	return ErrorPrefix + newlines.Replace(err.Error())
}
