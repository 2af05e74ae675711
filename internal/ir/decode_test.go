package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/diag"
)

func TestDecodeReply_Primitives(t *testing.T) {
	s := NewSchema(nil, nil)

	v, err := DecodeReply([]byte(`18446744073709551615`), Primitive(KindUint64), s)
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", v.(Int).String())

	v, err = DecodeReply([]byte(` "hello, world!" `), Primitive(KindString), s)
	require.NoError(t, err)
	assert.Equal(t, Str("hello, world!"), v)
}

func TestDecodeReply_Struct(t *testing.T) {
	s := shopSchema()

	v, err := DecodeReply([]byte(`{"id":35}`), StructRef("Product"), s)
	require.NoError(t, err)
	st, ok := v.(Struct)
	require.True(t, ok)
	assert.Equal(t, "Product", st.Decl.Name)
	id, ok := st.Field("id")
	require.True(t, ok)
	assert.Equal(t, "35", id.(Int).String())
}

func TestDecodeReply_Mismatches(t *testing.T) {
	s := shopSchema()

	tests := []struct {
		name string
		body string
		want TypeRef
	}{
		{"string for int", `"x"`, Primitive(KindInt32)},
		{"float for int", `1.5`, Primitive(KindInt32)},
		{"int for string", `1`, Primitive(KindString)},
		{"missing field", `{}`, StructRef("Product")},
		{"extra field", `{"id":1,"name":"x"}`, StructRef("Product")},
		{"array for struct", `[1]`, StructRef("Product")},
		{"trailing data", `1 2`, Primitive(KindInt32)},
		{"malformed", `{`, Primitive(KindInt32)},
		{"unknown struct", `{}`, StructRef("Nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeReply([]byte(tt.body), tt.want, s)
			assert.Error(t, err)
		})
	}
}

func TestDecodeReply_OutOfRange(t *testing.T) {
	_, err := DecodeReply([]byte(`4294967296`), Primitive(KindUint32), NewSchema(nil, nil))
	assert.True(t, diag.Is(err, diag.CodeIntegerOverflow))
}
