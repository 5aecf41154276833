package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/market"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected call, failed verification or scenario
	ExitCommandError = 2 // Command error (bad arguments, missing database, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written through an
	// OutputFormatter and must not be printed again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // market or runtime code, e.g. "UNAUTHORIZED"
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
	CallID  string `json:"call_id,omitempty"` // audit record of a rejected call
}

// Success outputs data. JSON output encodes data; text output calls text,
// or prints data with fmt when text is nil.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(e CLIError) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "error", Error: &e})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	if e.CallID != "" {
		fmt.Fprintf(f.Writer, "Call: %s\n", e.CallID)
	}
	if m, ok := e.Details.(map[string]string); ok && f.Verbose {
		for _, kv := range sortedDetails(m) {
			fmt.Fprintf(f.Writer, "  %s\n", kv)
		}
	}
	return nil
}

// Rejected reports a call the market or the engine refused and returns the
// matching ExitError. Persistence failures are command errors.
func (f *OutputFormatter) Rejected(callID string, err error) error {
	e := describe(err)
	e.CallID = callID
	if outErr := f.Error(e); outErr != nil {
		return outErr
	}

	code := ExitFailure
	if engine.IsPersistError(err) {
		code = ExitCommandError
	}
	return &ExitError{Code: code, Message: e.Message, Err: err, Reported: true}
}

// describe extracts a code, message and details from a call error.
func describe(err error) CLIError {
	var me *market.Error
	if errors.As(err, &me) {
		return CLIError{Code: string(me.Code), Message: me.Message, Details: detailsOf(me.Details)}
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return CLIError{Code: string(re.Code), Message: re.Message, Details: detailsOf(re.Details)}
	}
	return CLIError{Code: "ERROR", Message: err.Error()}
}

func detailsOf(m map[string]string) any {
	if len(m) == 0 {
		return nil
	}
	return m
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// sortedDetails renders details as "k=v" pairs in key order.
func sortedDetails(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + m[k]
	}
	return out
}
