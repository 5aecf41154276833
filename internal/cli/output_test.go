package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/market"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("plain", nil))
	require.NoError(t, formatter.Success("ignored", func(w io.Writer) { fmt.Fprintln(w, "custom") }))
	assert.Equal(t, "plain\ncustom\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error(CLIError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "store balance is lower than the requested amount",
		Details: map[string]string{"requested": "11", "balance": "10"},
		CallID:  "call-9",
	}))
	assert.Equal(t, "Error [INSUFFICIENT_BALANCE]: store balance is lower than the requested amount\n"+
		"Call: call-9\n"+
		"  balance=10\n"+
		"  requested=11\n", buf.String())
}

func TestOutputFormatter_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{
			name:     "market error",
			err:      &market.Error{Code: market.CodeUnauthorized, Message: "caller is not a store owner"},
			wantCode: "UNAUTHORIZED",
			wantExit: ExitFailure,
		},
		{
			name:     "invalid call",
			err:      &engine.RuntimeError{Code: engine.ErrCodeInvalidCall, Message: "missing argument"},
			wantCode: "INVALID_CALL",
			wantExit: ExitFailure,
		},
		{
			name:     "persist failure",
			err:      &engine.RuntimeError{Code: engine.ErrCodePersist, Message: "commit failed"},
			wantCode: "PERSIST_FAILED",
			wantExit: ExitCommandError,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: "ERROR",
			wantExit: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Rejected("call-1", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.True(t, IsReported(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "call-1", resp.Error.CallID)
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, diag.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", diag.String())
	assert.Empty(t, out.String())
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open database", inner)

	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(inner))
	assert.False(t, IsReported(err))
}
