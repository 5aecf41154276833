package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/safemath"
)

// Scenario defines a market test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Owner is the market owner.
	Owner string `yaml:"owner"`

	// Accounts are the opening wallet balances.
	Accounts map[string]string `yaml:"accounts,omitempty"`

	// Setup calls establish initial state and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence of calls under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one call.
type Step struct {
	// Op is the operation name (e.g., "create_store").
	Op string `yaml:"op"`

	// As is the calling principal.
	As string `yaml:"as"`

	// Value is the attached native value, purchase_product only.
	Value string `yaml:"value,omitempty"`

	// Args contains the operation arguments.
	Args map[string]any `yaml:"args"`

	// Expect specifies the expected outcome. Nil means the call must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected call behavior.
type ExpectClause struct {
	// Outcome is "OK" or an error code (e.g., "PAYMENT_MISMATCH").
	Outcome string `yaml:"outcome"`

	// ID is the expected allocated store or product ID.
	ID *uint64 `yaml:"id,omitempty"`

	// Events lists the kinds the call must emit, in order. Nil skips the
	// check; an empty list requires that nothing was emitted.
	Events []string `yaml:"events,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind is the event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Args are expected event args, subset match (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Kinds is the expected event order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Target is market, store, product or wallet (final_state).
	Target string `yaml:"target,omitempty"`

	// Where selects the target: store_id, product_id or principal.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values, subset match (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertVerify        = "verify"
)

// Final state targets.
const (
	TargetMarket  = "market"
	TargetStore   = "store"
	TargetProduct = "product"
	TargetWallet  = "wallet"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for p, amount := range s.Accounts {
		if _, err := safemath.ParseDecimal(amount); err != nil {
			return fmt.Errorf("accounts[%s]: %w", p, err)
		}
	}
	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Outcome == "" {
			return fmt.Errorf("flow[%d].expect: outcome is required", i)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !engine.Op(step.Op).Valid() {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.As == "" {
		return fmt.Errorf("as is required")
	}
	if step.Args == nil {
		return fmt.Errorf("args is required (use empty map if no args)")
	}
	if _, err := safemath.ParseDecimal(step.Value); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if step.Expect != nil {
		for _, k := range step.Expect.Events {
			if !event.Kind(k).Valid() {
				return fmt.Errorf("expect: unknown event kind %q", k)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for %s", index, a.Type)
		}
		if !event.Kind(a.Kind).Valid() {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
		for _, k := range a.Kinds {
			if !event.Kind(k).Valid() {
				return fmt.Errorf("assertions[%d]: unknown event kind %q", index, k)
			}
		}
	case AssertFinalState:
		switch a.Target {
		case TargetMarket, TargetStore, TargetProduct, TargetWallet:
		case "":
			return fmt.Errorf("assertions[%d]: target is required for final_state", index)
		default:
			return fmt.Errorf("assertions[%d]: unknown target %q", index, a.Target)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertVerify:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
