package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/store"
)

// session is an opened market database and the engine restored from it.
type session struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// openSession opens the database named by --db and replays its log.
func openSession(cmd *cobra.Command, opts *RootOptions, extra ...engine.Option) (*session, error) {
	logger := opts.logger(cmd.ErrOrStderr(), slog.LevelWarn)

	logger.Debug("opening database", "path", opts.DB)
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	engineOpts := append([]engine.Option{engine.WithLogger(logger)}, extra...)
	e, err := engine.Open(commandContext(cmd), st, engineOpts...)
	if err != nil {
		st.Close()
		if errors.Is(err, engine.ErrNotInitialized) {
			return nil, notInitialized(opts.DB)
		}
		return nil, WrapExitError(ExitCommandError, "failed to open market", err)
	}
	return &session{store: st, engine: e, logger: logger}, nil
}

// openStore opens the database without replaying it.
func openStore(cmd *cobra.Command, opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if _, err := st.Meta(commandContext(cmd), engine.MetaOwner); err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotFound) {
			return nil, notInitialized(opts.DB)
		}
		return nil, WrapExitError(ExitCommandError, "failed to read database", err)
	}
	return st, nil
}

func notInitialized(db string) *ExitError {
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: market not initialized (run bazaar init)", db))
}

// Close closes the database.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// caller returns the --as principal, failing when none is configured.
func (o *RootOptions) caller() (market.Principal, error) {
	if o.As == "" {
		return "", NewExitError(ExitCommandError, "no calling principal: pass --as or set BAZAAR_PRINCIPAL")
	}
	return market.Principal(o.As), nil
}

// callOutput is the result of a committed call.
type callOutput struct {
	CallID string        `json:"call_id"`
	ID     *uint64       `json:"id,omitempty"`
	Events []event.Event `json:"events"`
}

// execute runs one call as --as and reports its outcome.
func execute(cmd *cobra.Command, opts *RootOptions, op engine.Op, args payload.Object, value uint256.Int) error {
	caller, err := opts.caller()
	if err != nil {
		return err
	}
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.call(cmd, opts, engine.Call{Op: op, Caller: caller, Value: value, Args: args})
}

func (s *session) call(cmd *cobra.Command, opts *RootOptions, c engine.Call) error {
	f := opts.formatter(cmd)
	f.VerboseLog("%s %s as %s", c.Op, formatArgs(c.Args), c.Caller)

	res, err := s.engine.Execute(commandContext(cmd), c)
	if err != nil {
		return f.Rejected(res.CallID, err)
	}

	out := callOutput{CallID: res.CallID, Events: res.Events}
	if c.Op == engine.OpCreateStore || c.Op == engine.OpAddProduct {
		id := res.ID
		out.ID = &id
	}
	return f.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s OK\n", res.CallID, c.Op)
		if out.ID != nil {
			fmt.Fprintf(w, "id: %d\n", *out.ID)
		}
		for _, e := range res.Events {
			fmt.Fprintf(w, "  %s\n", e)
		}
	})
}

func formatArgs(args payload.Object) string {
	data, err := payload.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// parseID parses a store or product identifier argument.
func parseID(name, s string) (payload.Int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s %q: must be a non-negative integer", name, s))
	}
	return payload.Int(n), nil
}

// parseAmount parses a base-10 amount argument.
func parseAmount(name, s string) (uint256.Int, error) {
	v, err := safemath.ParseDecimal(s)
	if err != nil {
		return uint256.Int{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", name, s), err)
	}
	return v, nil
}

// amountArg parses s and renders it as a payload amount.
func amountArg(name, s string) (payload.String, error) {
	v, err := parseAmount(name, s)
	if err != nil {
		return "", err
	}
	return payload.String(v.Dec()), nil
}
