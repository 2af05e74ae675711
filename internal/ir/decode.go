package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// DecodeReply decodes a successful reply body against the expected return
// type. Numbers are decoded with UseNumber so uint64 and int64 extremes
// survive intact.
func DecodeReply(body []byte, want TypeRef, schema *Schema) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode reply: trailing data after value")
	}
	return DecodeValue(raw, want, schema)
}

// DecodeValue converts a generic JSON value into a bound value of type want.
// Integers are range checked exactly as query literals are.
func DecodeValue(raw any, want TypeRef, schema *Schema) (Value, error) {
	switch {
	case want.Kind.IsInteger():
		num, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %T", want, raw)
		}
		n, ok := new(big.Int).SetString(num.String(), 10)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %s", want, num)
		}
		v, err := CheckRange(want.Kind, n)
		if err != nil {
			return nil, err
		}
		return v, nil

	case want.Kind == KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}
		return Str(s), nil

	case want.IsStruct():
		decl, ok := schema.Struct(want.Name)
		if !ok {
			return nil, fmt.Errorf("unknown struct %s", want.Name)
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected %s object, got %T", want.Name, raw)
		}
		fields := make(map[string]Value, len(decl.Fields))
		for _, f := range decl.Fields {
			fieldRaw, present := obj[f.Name]
			if !present {
				return nil, fmt.Errorf("%s.%s: missing", decl.Name, f.Name)
			}
			v, err := DecodeValue(fieldRaw, f.Type, schema)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", decl.Name, f.Name, err)
			}
			fields[f.Name] = v
		}
		if len(obj) != len(decl.Fields) {
			for k := range obj {
				if _, declared := decl.Field(k); !declared {
					return nil, fmt.Errorf("%s: no such field %q", decl.Name, k)
				}
			}
		}
		return Struct{Decl: decl, Fields: fields}, nil

	default:
		return nil, fmt.Errorf("cannot decode into %s", want)
	}
}
