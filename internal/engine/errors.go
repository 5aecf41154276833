package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/bazaar/internal/market"
)

// RuntimeError represents a failure detected by the engine itself rather
// than by the market.
//
// Runtime errors include:
//   - Invalid call: unknown operation, missing or malformed argument
//   - Insufficient funds: the buyer cannot cover the attached value
//   - Persist failure: the store rejected a commit
//   - Stopped: the Run loop is no longer accepting calls
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// CallID identifies the affected call, when one was assigned.
	CallID string

	// Op is the operation being executed.
	Op Op

	// Details contains additional context.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidCall indicates the call could not be decoded.
	ErrCodeInvalidCall RuntimeErrorCode = "INVALID_CALL"

	// ErrCodeInsufficientFunds indicates the caller's wallet cannot pay the
	// attached value.
	ErrCodeInsufficientFunds RuntimeErrorCode = "INSUFFICIENT_FUNDS"

	// ErrCodePersist indicates a commit failed. The engine refuses further
	// calls afterwards because memory and disk may disagree.
	ErrCodePersist RuntimeErrorCode = "PERSIST_FAILED"

	// ErrCodeStopped indicates the engine is shut down.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s (op=%s)", msg, e.Op)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// IsInvalidCall returns true if the error is an invalid call error.
// Uses errors.As to handle wrapped errors.
func IsInvalidCall(err error) bool {
	return runtimeCode(err) == ErrCodeInvalidCall
}

// IsInsufficientFunds returns true if the caller's wallet could not pay.
func IsInsufficientFunds(err error) bool {
	return runtimeCode(err) == ErrCodeInsufficientFunds
}

// IsPersistError returns true if a commit failed.
func IsPersistError(err error) bool {
	return runtimeCode(err) == ErrCodePersist
}

func runtimeCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// OutcomeOf returns the outcome string recorded for a call: "OK" for nil,
// the market or runtime code when err carries one, otherwise "INTERNAL".
func OutcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if code := market.CodeOf(err); code != "" {
		return string(code)
	}
	if code := runtimeCode(err); code != "" {
		return string(code)
	}
	return "INTERNAL"
}

// OutcomeOK is the outcome of a successful call.
const OutcomeOK = "OK"

func invalidCall(op Op, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidCall,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}
