package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSchema prefixes schema hashes.
// Version suffix enables future algorithm migration.
const DomainSchema = "schemarepl/schema/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemaHash computes a content-addressed identity for a compiled schema.
// Two schemas hash equal iff they declare the same structs and functions
// with the same fields in the same order; whitespace in the source is
// irrelevant.
func SchemaHash(s *Schema) (string, error) {
	structs := make([]any, 0)
	for _, decl := range s.Structs() {
		structs = append(structs, map[string]any{
			"name":   decl.Name,
			"fields": fieldsDoc(decl.Fields),
		})
	}
	functions := make([]any, 0)
	for _, decl := range s.Functions() {
		functions = append(functions, map[string]any{
			"name":   decl.Name,
			"return": decl.Return.String(),
			"params": fieldsDoc(decl.Params),
		})
	}

	canonical, err := MarshalCanonical(map[string]any{
		"structs":   structs,
		"functions": functions,
	})
	if err != nil {
		return "", fmt.Errorf("SchemaHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

func fieldsDoc(fields []FieldDecl) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, []any{f.Name, f.Type.String()})
	}
	return out
}
