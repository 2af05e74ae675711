package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaHash_Deterministic(t *testing.T) {
	a := hashOf(t, shopSchema())
	b := hashOf(t, shopSchema())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestSchemaHash_SensitiveToFieldOrder(t *testing.T) {
	reordered := NewSchema(
		[]StructDecl{
			{Name: "Product", Fields: []FieldDecl{{Name: "id", Type: Primitive(KindInt32)}}},
			{Name: "OrderItem", Fields: []FieldDecl{
				{Name: "quantity", Type: Primitive(KindInt32)},
				{Name: "product", Type: StructRef("Product")},
			}},
		},
		functionDecls(shopSchema()),
	)
	assert.NotEqual(t, hashOf(t, shopSchema()), hashOf(t, reordered))
}

func TestSchemaHash_Empty(t *testing.T) {
	assert.NotEmpty(t, hashOf(t, NewSchema(nil, nil)))
}

func functionDecls(s *Schema) []FunctionDecl {
	var out []FunctionDecl
	for _, f := range s.Functions() {
		out = append(out, *f)
	}
	return out
}

func hashOf(t *testing.T, s *Schema) string {
	t.Helper()
	h, err := SchemaHash(s)
	require.NoError(t, err)
	return h
}
