package safemath

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a sum or product exceeds 2^256-1.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrUnderflow is returned when the subtrahend exceeds the minuend.
	ErrUnderflow = errors.New("arithmetic underflow")
)

// Add returns a+b.
func Add(a, b uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, overflow := z.AddOverflow(&a, &b); overflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}

// Sub returns a-b.
func Sub(a, b uint256.Int) (uint256.Int, error) {
	if a.Lt(&b) {
		return uint256.Int{}, ErrUnderflow
	}
	var z uint256.Int
	z.Sub(&a, &b)
	return z, nil
}

// Mul returns a*b.
func Mul(a, b uint256.Int) (uint256.Int, error) {
	var z uint256.Int
	if _, overflow := z.MulOverflow(&a, &b); overflow {
		return uint256.Int{}, ErrOverflow
	}
	return z, nil
}

// FromUint64 is shorthand for a uint256 value holding n.
func FromUint64(n uint64) uint256.Int {
	return *uint256.NewInt(n)
}

// Max returns the largest representable magnitude, 2^256-1.
func Max() uint256.Int {
	var z uint256.Int
	z.SetAllOne()
	return z
}

// ParseDecimal parses a base-10 string. Empty input is zero.
func ParseDecimal(s string) (uint256.Int, error) {
	if s == "" {
		return uint256.Int{}, nil
	}
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, err
	}
	return *z, nil
}
