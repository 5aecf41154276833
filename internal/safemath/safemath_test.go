package safemath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	sum, err := Add(FromUint64(2), FromUint64(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum.Uint64())
}

func TestAdd_AtMaximum(t *testing.T) {
	sum, err := Add(Max(), FromUint64(0))
	require.NoError(t, err)
	assert.Equal(t, Max(), sum)
}

func TestAdd_Overflow(t *testing.T) {
	_, err := Add(Max(), FromUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSub(t *testing.T) {
	diff, err := Sub(FromUint64(5), FromUint64(5))
	require.NoError(t, err)
	assert.True(t, diff.IsZero())
}

func TestSub_Underflow(t *testing.T) {
	_, err := Sub(FromUint64(1), FromUint64(2))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMul(t *testing.T) {
	product, err := Mul(FromUint64(7), FromUint64(6))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), product.Uint64())
}

func TestMul_ByZeroNeverOverflows(t *testing.T) {
	product, err := Mul(Max(), FromUint64(0))
	require.NoError(t, err)
	assert.True(t, product.IsZero())
}

func TestMul_Overflow(t *testing.T) {
	half := new(uint256.Int).Rsh(new(uint256.Int).SetAllOne(), 1) // 2^255-1
	_, err := Mul(*half, FromUint64(3))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestArgumentsAreNotModified(t *testing.T) {
	a, b := FromUint64(10), FromUint64(4)
	_, _ = Add(a, b)
	_, _ = Sub(a, b)
	_, _ = Mul(a, b)
	assert.Equal(t, uint64(10), a.Uint64())
	assert.Equal(t, uint64(4), b.Uint64())
}

func TestParseDecimal(t *testing.T) {
	v, err := ParseDecimal("2000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", v.Dec())

	zero, err := ParseDecimal("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParseDecimal("-1")
	assert.Error(t, err)
}
