package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/mirror"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/safemath"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

// Harness executes one scenario.
type Harness struct {
	engine *engine.Engine
	mirror *mirror.Mirror
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and initialize the market
// 2. Execute setup steps, failing on the first rejected call
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions and check the client mirror
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	accounts, err := scenarioAccounts(scenario.Accounts)
	if err != nil {
		return nil, err
	}
	if err := engine.Initialize(ctx, st, market.Principal(scenario.Owner), accounts); err != nil {
		return nil, fmt.Errorf("failed to initialize market: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.Open(ctx, st,
		engine.WithCallIDs(engine.NewSequentialGenerator("call")),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	h := &Harness{
		engine: eng,
		mirror: mirror.New(),
		logger: logger,
	}
	eng.Subscribe(h.mirror)

	result := NewResult()
	for i, step := range scenario.Setup {
		outcome, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("setup step %d: %w", i, err)
		}
		if outcome.Outcome != engine.OutcomeOK {
			return nil, fmt.Errorf("setup step %d (%s by %s): %s", i, step.Op, step.As, outcome.Message)
		}
	}

	for i, step := range scenario.Flow {
		outcome, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		for _, msg := range checkExpect(step, outcome) {
			result.AddError(fmt.Sprintf("flow[%d] %s by %s: %s", i, step.Op, step.As, msg))
		}
	}

	if err := h.mirror.Err(); err != nil {
		result.AddError(fmt.Sprintf("client mirror: %v", err))
	}

	actx := &AssertionContext{Ctx: ctx, Store: st, Engine: eng}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// stepOutcome is what one executed step produced.
type stepOutcome struct {
	Outcome string
	Message string
	ID      uint64
	Events  []event.Event
}

// execute runs step through the engine and appends it to the trace.
// Market rejections are outcomes, not errors.
func (h *Harness) execute(ctx context.Context, step Step, result *Result) (stepOutcome, error) {
	args, err := convertArgs(step.Args)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("failed to convert args: %w", err)
	}
	value, err := safemath.ParseDecimal(step.Value)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("value: %w", err)
	}

	res, callErr := h.engine.Execute(ctx, engine.Call{
		Op:     engine.Op(step.Op),
		Caller: market.Principal(step.As),
		Value:  value,
		Args:   args,
	})
	if engine.IsPersistError(callErr) {
		return stepOutcome{}, callErr
	}

	out := stepOutcome{
		Outcome: engine.OutcomeOf(callErr),
		ID:      res.ID,
		Events:  res.Events,
	}
	if callErr != nil {
		out.Message = callErr.Error()
	}

	result.AddCallTrace(res.CallID, step.Op, step.As, step.Value, out.Outcome, args)
	for _, e := range res.Events {
		result.AddEventTrace(e)
	}

	h.logger.Info("step executed",
		"call_id", res.CallID,
		"op", step.Op,
		"outcome", out.Outcome,
		"events", len(res.Events),
	)
	return out, nil
}

// checkExpect compares a flow step's outcome with its expect clause.
func checkExpect(step Step, got stepOutcome) []string {
	want := ExpectClause{Outcome: engine.OutcomeOK}
	if step.Expect != nil {
		want = *step.Expect
	}

	var errs []string
	if got.Outcome != want.Outcome {
		msg := fmt.Sprintf("expected outcome %s, got %s", want.Outcome, got.Outcome)
		if got.Message != "" {
			msg += " (" + got.Message + ")"
		}
		errs = append(errs, msg)
	}
	if want.ID != nil && got.Outcome == engine.OutcomeOK && got.ID != *want.ID {
		errs = append(errs, fmt.Sprintf("expected id %d, got %d", *want.ID, got.ID))
	}
	if want.Events != nil {
		kinds := make([]string, len(got.Events))
		for i, e := range got.Events {
			kinds[i] = string(e.Kind)
		}
		if !slices.Equal(kinds, want.Events) {
			errs = append(errs, fmt.Sprintf("expected events %v, got %v", want.Events, kinds))
		}
	}
	return errs
}

func scenarioAccounts(in map[string]string) ([]wallet.Account, error) {
	out := make([]wallet.Account, 0, len(in))
	for p, amount := range in {
		v, err := safemath.ParseDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", p, err)
		}
		out = append(out, wallet.Account{Principal: market.Principal(p), Balance: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out, nil
}

// convertArgs converts YAML-parsed arguments to a payload object.
func convertArgs(args map[string]any) (payload.Object, error) {
	result := make(payload.Object, len(args))
	for key, val := range args {
		v, err := convertValue(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		result[key] = v
	}
	return result, nil
}

// convertValue converts a YAML-parsed scalar. Nulls and floats have no
// payload representation.
func convertValue(val any) (payload.Value, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not allowed")
	case string:
		return payload.String(v), nil
	case int:
		return payload.Int(int64(v)), nil
	case int64:
		return payload.Int(v), nil
	case uint64:
		if v > 1<<63-1 {
			return nil, fmt.Errorf("integer %d out of range", v)
		}
		return payload.Int(int64(v)), nil
	case float64:
		if v == float64(int64(v)) {
			return payload.Int(int64(v)), nil
		}
		return nil, fmt.Errorf("floats are not allowed: %v", v)
	case bool:
		return payload.Bool(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}
