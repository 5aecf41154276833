package harness

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/market"
	"github.com/roach88/bazaar/internal/payload"
	"github.com/roach88/bazaar/internal/store"
	"github.com/roach88/bazaar/internal/wallet"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, line := range RenderTrace(e.Trace) {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// assertTraceContains checks for an event of the given kind whose args
// include assertion.Args.
func assertTraceContains(trace []TraceEntry, assertion Assertion) error {
	want, err := convertArgs(assertion.Args)
	if err != nil {
		return fmt.Errorf("trace_contains args: %w", err)
	}
	for _, e := range trace {
		if e.Type == TraceEvent && string(e.Kind) == assertion.Kind && matchArgs(e.Args, want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s with args %s", assertion.Kind, formatArgs(want)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first event of each kind appears in the
// listed order. Intervening events are allowed.
func assertTraceOrder(trace []TraceEntry, assertion Assertion) error {
	positions := make(map[string]int)
	for i, e := range trace {
		if e.Type != TraceEvent {
			continue
		}
		if _, seen := positions[string(e.Kind)]; !seen {
			positions[string(e.Kind)] = i + 1
		}
	}

	for _, kind := range assertion.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", assertion.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(assertion.Kinds); i++ {
		prev, curr := assertion.Kinds[i-1], assertion.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count events of Kind were emitted.
func assertTraceCount(trace []TraceEntry, assertion Assertion) error {
	count := 0
	for _, e := range trace {
		if e.Type == TraceEvent && string(e.Kind) == assertion.Kind {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d events of kind %s", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState reads the target from the engine and compares the
// expected fields. Every field is compared in its string form.
func assertFinalState(e *engine.Engine, assertion Assertion) error {
	where, err := convertArgs(assertion.Where)
	if err != nil {
		return fmt.Errorf("final_state where: %w", err)
	}

	var actual map[string]string
	e.View(func(m *market.Market, w *wallet.Book) {
		actual = snapshot(m, w, assertion.Target, where)
	})

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := fmt.Sprint(assertion.Expect[key])
		got, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist on %s", key, assertion.Target),
				Actual:   fmt.Sprintf("fields: %s", strings.Join(sortedFields(actual), ", ")),
			}
		}
		if got != want {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %s: %s = %s", assertion.Target, formatArgs(where), key, want),
				Actual:   fmt.Sprintf("%s = %s", key, got),
			}
		}
	}
	return nil
}

// snapshot renders a target's fields as strings.
func snapshot(m *market.Market, w *wallet.Book, target string, where payload.Object) map[string]string {
	storeID := uint64(where.Int(event.ArgStoreID))
	productID := uint64(where.Int(event.ArgProductID))

	switch target {
	case TargetMarket:
		custody := w.Balance(wallet.Custody)
		return map[string]string{
			"owner":          string(m.Owner()),
			"open":           strconv.FormatBool(m.IsOpen()),
			"administrators": joinPrincipals(m.Administrators()),
			"store_owners":   joinPrincipals(m.StoreOwners()),
			"next_store_id":  strconv.FormatUint(m.NextStoreID(), 10),
			"stores":         strconv.Itoa(len(m.ActiveStores())),
			"custody":        custody.Dec(),
		}
	case TargetStore:
		st := m.Store(storeID)
		return map[string]string{
			"owner":           string(st.Owner),
			"name":            st.Name,
			"balance":         st.Balance.Dec(),
			"active":          strconv.FormatBool(m.StoreActive(storeID)),
			"products":        strconv.Itoa(len(m.ActiveProducts(storeID))),
			"next_product_id": strconv.FormatUint(m.NextProductID(storeID), 10),
		}
	case TargetProduct:
		p := m.Product(storeID, productID)
		return map[string]string{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price.Dec(),
			"quantity":    p.Quantity.Dec(),
			"active":      strconv.FormatBool(m.ProductActive(storeID, productID)),
		}
	case TargetWallet:
		bal := w.Balance(market.Principal(where.String(engine.ArgPrincipal)))
		return map[string]string{"balance": bal.Dec()}
	}
	return map[string]string{}
}

// assertVerify replays the stored log and checks custody.
func assertVerify(ctx context.Context, st *store.Store) error {
	report, err := engine.Verify(ctx, st)
	if err != nil {
		return &AssertionError{Type: AssertVerify, Expected: "log replays", Actual: err.Error()}
	}
	if !report.OK() {
		return &AssertionError{
			Type:     AssertVerify,
			Expected: "no problems",
			Actual:   strings.Join(report.Problems, "; "),
		}
	}
	return nil
}

// matchArgs checks if actual contains every expected arg (subset match).
func matchArgs(actual, expected payload.Object) bool {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists || got != want {
			return false
		}
	}
	return true
}

func formatArgs(args payload.Object) string {
	data, err := payload.Marshal(args)
	if err != nil {
		return fmt.Sprint(map[string]payload.Value(args))
	}
	return string(data)
}

func joinPrincipals(ps []market.Principal) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

func sortedFields(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides what assertions read besides the trace.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Engine *engine.Engine
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires an engine", i)
			} else {
				err = assertFinalState(actx.Engine, assertion)
			}
		case AssertVerify:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: verify requires a store", i)
			} else {
				err = assertVerify(actx.Ctx, actx.Store)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
