package market

import (
	"errors"
	"fmt"

	"github.com/roach88/bazaar/internal/safemath"
)

// Code categorizes ledger failures.
type Code string

const (
	// CodeUnauthorized: the caller does not hold the role the operation needs.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeMarketClosed: a trading operation was called while the market is closed.
	CodeMarketClosed Code = "MARKET_CLOSED"

	// CodeArithmeticOverflow: a sum or product exceeded 2^256-1.
	CodeArithmeticOverflow Code = "ARITHMETIC_OVERFLOW"

	// CodeArithmeticUnderflow: a subtraction went below zero.
	CodeArithmeticUnderflow Code = "ARITHMETIC_UNDERFLOW"

	// CodeInsufficientQuantity: a purchase asked for more than is in stock.
	CodeInsufficientQuantity Code = "INSUFFICIENT_QUANTITY"

	// CodeInsufficientBalance: a withdrawal asked for more than the store holds.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// CodePaymentMismatch: attached value differs from price * quantity.
	CodePaymentMismatch Code = "PAYMENT_MISMATCH"

	// CodeReentrantCall: a ledger mutation arrived while a withdrawal transfer
	// was in progress.
	CodeReentrantCall Code = "REENTRANT_CALL"

	// CodeTransferFailed: the payout collaborator rejected a withdrawal.
	CodeTransferFailed Code = "TRANSFER_FAILED"
)

// Error is the failure type returned by every market operation.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so the Err* values below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized         = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrMarketClosed         = &Error{Code: CodeMarketClosed, Message: "market is closed"}
	ErrArithmeticOverflow   = &Error{Code: CodeArithmeticOverflow, Message: "arithmetic overflow"}
	ErrArithmeticUnderflow  = &Error{Code: CodeArithmeticUnderflow, Message: "arithmetic underflow"}
	ErrInsufficientQuantity = &Error{Code: CodeInsufficientQuantity, Message: "insufficient quantity"}
	ErrInsufficientBalance  = &Error{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrPaymentMismatch      = &Error{Code: CodePaymentMismatch, Message: "payment mismatch"}
	ErrReentrantCall        = &Error{Code: CodeReentrantCall, Message: "re-entrant call"}
	ErrTransferFailed       = &Error{Code: CodeTransferFailed, Message: "transfer failed"}
)

// CodeOf returns the Code carried by err, or "" if err is not a market error.
func CodeOf(err error) Code {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

func unauthorized(caller Principal, need string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("caller must be %s", need),
		Details: map[string]string{"caller": string(caller)},
	}
}

func marketClosed() *Error {
	return &Error{Code: CodeMarketClosed, Message: "market is closed"}
}

// arithmetic converts a safemath failure into a market error.
func arithmetic(err error, what string) *Error {
	switch {
	case errors.Is(err, safemath.ErrOverflow):
		return &Error{Code: CodeArithmeticOverflow, Message: what + " overflows", Cause: err}
	case errors.Is(err, safemath.ErrUnderflow):
		return &Error{Code: CodeArithmeticUnderflow, Message: what + " underflows", Cause: err}
	}
	return &Error{Code: CodeArithmeticOverflow, Message: what, Cause: err}
}
