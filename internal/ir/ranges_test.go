package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/diag"
)

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad literal %q", s)
	return n
}

// TestCheckRange_Boundaries verifies that min and max succeed and round-trip,
// while one past either end fails with the matching diagnostic.
func TestCheckRange_Boundaries(t *testing.T) {
	tests := []struct {
		kind Kind
		min  string
		max  string
	}{
		{KindInt32, "-2147483648", "2147483647"},
		{KindInt64, "-9223372036854775808", "9223372036854775807"},
		{KindUint32, "0", "4294967295"},
		{KindUint64, "0", "18446744073709551615"},
	}

	one := big.NewInt(1)
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			maxVal := bigFromString(t, tt.max)
			minVal := bigFromString(t, tt.min)

			v, err := CheckRange(tt.kind, maxVal)
			require.NoError(t, err)
			assert.Equal(t, tt.max, v.String())

			v, err = CheckRange(tt.kind, minVal)
			require.NoError(t, err)
			assert.Equal(t, tt.min, v.String())

			_, err = CheckRange(tt.kind, new(big.Int).Add(maxVal, one))
			require.Error(t, err)
			assert.True(t, diag.Is(err, diag.CodeIntegerOverflow))
			assert.Contains(t, err.Error(), tt.kind.String()+" overflow")

			_, err = CheckRange(tt.kind, new(big.Int).Sub(minVal, one))
			require.Error(t, err)
			assert.True(t, diag.Is(err, diag.CodeIntegerUnderflow))
			assert.Contains(t, err.Error(), tt.kind.String()+" underflow")
		})
	}
}

func TestCheckRange_StringKind(t *testing.T) {
	_, err := CheckRange(KindString, big.NewInt(1))
	assert.True(t, diag.Is(err, diag.CodeTypeMismatch))
}

func TestRangeOf_ReturnsCopy(t *testing.T) {
	r, ok := RangeOf(KindInt32)
	require.True(t, ok)
	r.Max.SetInt64(0)

	again, _ := RangeOf(KindInt32)
	assert.Equal(t, "2147483647", again.Max.String())

	_, ok = RangeOf(KindString)
	assert.False(t, ok)
}

func TestParseInt(t *testing.T) {
	v, ok, err := ParseInt(KindInt32, "200")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "200", v.String())
	assert.Equal(t, Primitive(KindInt32), v.Type())

	_, ok, err = ParseInt(KindInt32, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ParseInt(KindUint32, "-1")
	assert.True(t, ok)
	assert.True(t, diag.Is(err, diag.CodeIntegerUnderflow))

	// Magnitudes far past uint64 are still classified, not rejected as syntax.
	_, ok, err = ParseInt(KindUint64, "99999999999999999999999999")
	assert.True(t, ok)
	assert.True(t, diag.Is(err, diag.CodeIntegerOverflow))
}

func TestIsIntLiteral(t *testing.T) {
	valid := []string{"0", "42", "-1", "007", "18446744073709551616"}
	invalid := []string{"", "-", "+1", "1.5", "1e3", "abc", "12a", "--1"}

	for _, s := range valid {
		assert.True(t, IsIntLiteral(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsIntLiteral(s), s)
	}
}
