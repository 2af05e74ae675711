package ir

import (
	"math"
	"math/big"

	"github.com/roach88/schemarepl/internal/diag"
)

// Range is the inclusive value range of an integer kind.
type Range struct {
	Min *big.Int
	Max *big.Int
}

// ranges uses the canonical two's-complement bounds for each width.
var ranges = map[Kind]Range{
	KindInt32:  {Min: big.NewInt(math.MinInt32), Max: big.NewInt(math.MaxInt32)},
	KindInt64:  {Min: big.NewInt(math.MinInt64), Max: big.NewInt(math.MaxInt64)},
	KindUint32: {Min: big.NewInt(0), Max: new(big.Int).SetUint64(math.MaxUint32)},
	KindUint64: {Min: big.NewInt(0), Max: new(big.Int).SetUint64(math.MaxUint64)},
}

// RangeOf returns the range of an integer kind. Strings and structs have no
// range and report false.
func RangeOf(kind Kind) (Range, bool) {
	r, ok := ranges[kind]
	if !ok {
		return Range{}, false
	}
	return Range{Min: new(big.Int).Set(r.Min), Max: new(big.Int).Set(r.Max)}, true
}

// CheckRange validates v against the range of kind and returns the bound
// integer. Values above the maximum fail with IntegerOverflow, values below
// the minimum with IntegerUnderflow.
func CheckRange(kind Kind, v *big.Int) (Int, error) {
	r, ok := ranges[kind]
	if !ok {
		return Int{}, diag.New(diag.CodeTypeMismatch, "%s is not an integer type", kind)
	}
	if v.Cmp(r.Max) > 0 {
		return Int{}, diag.New(diag.CodeIntegerOverflow, "%s overflow: %s", kind, v.String())
	}
	if v.Cmp(r.Min) < 0 {
		return Int{}, diag.New(diag.CodeIntegerUnderflow, "%s underflow: %s", kind, v.String())
	}
	return Int{Kind: kind, v: new(big.Int).Set(v)}, nil
}

// ParseInt parses decimal integer text (optional leading '-') and checks it
// against kind. ok is false when text is not an integer literal at all.
func ParseInt(kind Kind, text string) (val Int, ok bool, err error) {
	if !IsIntLiteral(text) {
		return Int{}, false, nil
	}
	n, parsed := new(big.Int).SetString(text, 10)
	if !parsed {
		return Int{}, false, nil
	}
	val, err = CheckRange(kind, n)
	return val, true, err
}

// IsIntLiteral reports whether text is an optionally negative run of
// decimal digits.
func IsIntLiteral(text string) bool {
	digits := text
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
