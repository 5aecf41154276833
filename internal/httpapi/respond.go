package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/market"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, errorResponse{Error: body})
}

// describeError maps an engine, market or content error to a status and
// body.
func describeError(err error) (int, errorBody) {
	var me *market.Error
	if errors.As(err, &me) {
		return marketStatus(me.Code), errorBody{Code: string(me.Code), Message: me.Message, Details: me.Details}
	}

	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return runtimeStatus(re.Code), errorBody{Code: string(re.Code), Message: re.Message, Details: re.Details}
	}

	switch {
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: "CONTENT_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, content.ErrInvalidHandle):
		return http.StatusBadRequest, errorBody{Code: "INVALID_HANDLE", Message: err.Error()}
	case errors.Is(err, content.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Code: "CONTENT_TOO_LARGE", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorBody{Code: "CANCELLED", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorBody{Code: engine.OutcomeOf(err), Message: "internal error"}
}

func marketStatus(code market.Code) int {
	switch code {
	case market.CodeUnauthorized:
		return http.StatusForbidden
	case market.CodeMarketClosed, market.CodeReentrantCall:
		return http.StatusConflict
	case market.CodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func runtimeStatus(code engine.RuntimeErrorCode) int {
	switch code {
	case engine.ErrCodeInvalidCall:
		return http.StatusBadRequest
	case engine.ErrCodeInsufficientFunds:
		return http.StatusPaymentRequired
	case engine.ErrCodePersist, engine.ErrCodeStopped:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
