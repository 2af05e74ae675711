package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shopSchema() *Schema {
	return NewSchema(
		[]StructDecl{
			{Name: "Product", Fields: []FieldDecl{{Name: "id", Type: Primitive(KindInt32)}}},
			{Name: "OrderItem", Fields: []FieldDecl{
				{Name: "product", Type: StructRef("Product")},
				{Name: "quantity", Type: Primitive(KindInt32)},
			}},
		},
		[]FunctionDecl{
			{
				Name:   "getProduct",
				Return: StructRef("Product"),
				Params: []FieldDecl{{Name: "item", Type: StructRef("OrderItem")}},
			},
		},
	)
}

func TestTypeRefEquality(t *testing.T) {
	assert.True(t, Primitive(KindInt32).Equal(Primitive(KindInt32)))
	assert.False(t, Primitive(KindInt32).Equal(Primitive(KindInt64)))
	assert.True(t, StructRef("Person").Equal(StructRef("Person")))
	assert.False(t, StructRef("Person").Equal(StructRef("Car")))
	assert.False(t, StructRef("string").Equal(Primitive(KindString)))
}

func TestTypeRefString(t *testing.T) {
	assert.Equal(t, "uint64", Primitive(KindUint64).String())
	assert.Equal(t, "OrderItem", StructRef("OrderItem").String())
}

func TestPrimitiveKind(t *testing.T) {
	for _, name := range []string{"int32", "int64", "uint32", "uint64", "string"} {
		k, ok := PrimitiveKind(name)
		require.True(t, ok, name)
		assert.Equal(t, name, k.String())
	}
	_, ok := PrimitiveKind("float")
	assert.False(t, ok)
	_, ok = PrimitiveKind("struct")
	assert.False(t, ok)
}

func TestSchemaPreservesDeclarationOrder(t *testing.T) {
	s := shopSchema()

	structs := s.Structs()
	require.Len(t, structs, 2)
	assert.Equal(t, "Product", structs[0].Name)
	assert.Equal(t, "OrderItem", structs[1].Name)

	item, ok := s.Struct("OrderItem")
	require.True(t, ok)
	f, ok := item.Field("quantity")
	require.True(t, ok)
	assert.Equal(t, Primitive(KindInt32), f.Type)
	_, ok = item.Field("price")
	assert.False(t, ok)

	fn, ok := s.Function("getProduct")
	require.True(t, ok)
	p, ok := fn.Param("item")
	require.True(t, ok)
	assert.Equal(t, StructRef("OrderItem"), p.Type)

	assert.False(t, s.IsEmpty())
	assert.True(t, NewSchema(nil, nil).IsEmpty())
}

func TestIsIdentifier(t *testing.T) {
	for _, s := range []string{"a", "Person", "_x", "getId2", "order_item", "größe", "Café", "año", "名前"} {
		assert.True(t, IsIdentifier(s), s)
	}
	for _, s := range []string{"", "2a", "a-b", "a@b", "a.b", "a b", "١x"} {
		assert.False(t, IsIdentifier(s), s)
	}
}
