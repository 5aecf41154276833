// Package safemath provides overflow-checked arithmetic over 256-bit unsigned
// integers.
//
// Every balance and quantity mutation in the marketplace goes through Add, Sub
// or Mul. None of them wrap: results that do not fit in 256 bits return
// ErrOverflow, and subtractions that would go below zero return ErrUnderflow.
// The functions are pure and never modify their arguments.
package safemath
