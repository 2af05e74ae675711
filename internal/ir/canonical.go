package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// canonicalEncoder writes canonical JSON.
//
// Key differences from standard json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized when nfc is set
// 4. Integers are exact decimal text, never floats
// 5. No null (returns error)
type canonicalEncoder struct {
	nfc bool
}

// MarshalCanonical produces NFC-normalized canonical JSON, the input of
// content hashes.
func MarshalCanonical(v any) ([]byte, error) {
	return canonicalEncoder{nfc: true}.marshal(v)
}

// EncodeRequest encodes a bound call as the request body:
//
//	{"args":{"<param>":<value>,...},"function":"<name>"}
//
// This is the only serialization that crosses the call channel. String
// values are sent byte for byte as the query spelled them.
func EncodeRequest(req CallRequest) ([]byte, error) {
	if req.Function == nil {
		return nil, fmt.Errorf("encode request: no function")
	}
	args := make(map[string]any, len(req.Args))
	for _, a := range req.Args {
		args[a.Name] = a.Value
	}
	return canonicalEncoder{}.marshal(map[string]any{
		"args":     args,
		"function": req.Function.Name,
	})
}

func (e canonicalEncoder) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.value(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e canonicalEncoder) value(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Int:
		buf.WriteString(val.String())
	case Str:
		return e.string(buf, string(val))
	case Struct:
		if val.Decl == nil {
			return fmt.Errorf("struct value without declaration")
		}
		obj := make(map[string]any, len(val.Fields))
		for k, f := range val.Fields {
			obj[k] = f
		}
		return e.object(buf, obj)
	case string:
		return e.string(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case *big.Int:
		buf.WriteString(val.String())
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.value(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		return e.object(buf, val)
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// string writes a JSON string without HTML escaping.
func (e canonicalEncoder) string(buf *bytes.Buffer, s string) error {
	if e.nfc {
		s = norm.NFC.String(s)
	}

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(s); err != nil {
		return err
	}

	// json.Encoder adds trailing newline, remove it
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// object writes an object with UTF-16 key ordering.
func (e canonicalEncoder) object(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := e.string(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := e.value(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// compareKeysUTF16 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 which produces DIFFERENT order
// for characters outside the BMP.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
