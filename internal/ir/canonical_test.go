package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInt(t *testing.T, kind Kind, text string) Int {
	t.Helper()
	v, ok, err := ParseInt(kind, text)
	require.True(t, ok)
	require.NoError(t, err)
	return v
}

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", Str("hello"), `"hello"`},
		{"empty string", Str(""), `""`},
		{"no html escape", Str("a<b>&c"), `"a<b>&c"`},
		{"int", mustInt(t, KindInt32, "42"), "42"},
		{"negative int", mustInt(t, KindInt64, "-100"), "-100"},
		{"max uint64", mustInt(t, KindUint64, "18446744073709551615"), "18446744073709551615"},
		{"min int64", mustInt(t, KindInt64, "-9223372036854775808"), "-9223372036854775808"},
		{"big.Int", big.NewInt(7), "7"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	result, err := MarshalCanonical(Str("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestEncodeRequest_StringsVerbatim(t *testing.T) {
	fn := &FunctionDecl{Name: "echo", Return: Primitive(KindString),
		Params: []FieldDecl{{Name: "s", Type: Primitive(KindString)}}}

	body, err := EncodeRequest(CallRequest{
		Function: fn,
		Args:     []NamedValue{{Name: "s", Value: Str("e\u0301")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"args\":{\"s\":\"e\u0301\"},\"function\":\"echo\"}", string(body))
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestEncodeRequest_NestedStruct(t *testing.T) {
	s := shopSchema()
	product, _ := s.Struct("Product")
	item, _ := s.Struct("OrderItem")
	fn, _ := s.Function("getProduct")

	arg := Struct{Decl: item, Fields: map[string]Value{
		"quantity": mustInt(t, KindInt32, "2"),
		"product": Struct{Decl: product, Fields: map[string]Value{
			"id": mustInt(t, KindInt32, "35"),
		}},
	}}

	body, err := EncodeRequest(CallRequest{
		Function: fn,
		Args:     []NamedValue{{Name: "item", Value: arg}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"args":{"item":{"product":{"id":35},"quantity":2}},"function":"getProduct"}`,
		string(body))
}

func TestEncodeRequest_NoArgs(t *testing.T) {
	fn := &FunctionDecl{Name: "getSomeNumber", Return: Primitive(KindInt32)}
	body, err := EncodeRequest(CallRequest{Function: fn})
	require.NoError(t, err)
	assert.Equal(t, `{"args":{},"function":"getSomeNumber"}`, string(body))

	_, err = EncodeRequest(CallRequest{})
	assert.Error(t, err)
}

func TestCompareKeysUTF16(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16.
	assert.Equal(t, -1, compareKeysUTF16("\U0001F600", "｡"))
	assert.Equal(t, 0, compareKeysUTF16("a", "a"))
	assert.Equal(t, -1, compareKeysUTF16("a", "ab"))
}
