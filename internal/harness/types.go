package harness

import (
	"github.com/roach88/bazaar/internal/event"
	"github.com/roach88/bazaar/internal/payload"
)

// Trace entry types.
const (
	TraceCall  = "call"
	TraceEvent = "event"
)

// TraceEntry is one executed call or one event it emitted.
type TraceEntry struct {
	Type string `json:"type"`

	// Call fields.
	CallID  string         `json:"call_id,omitempty"`
	Op      string         `json:"op,omitempty"`
	Caller  string         `json:"caller,omitempty"`
	Value   string         `json:"value,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
	Args    payload.Object `json:"args,omitempty"`

	// Event fields.
	Seq  int64      `json:"seq,omitempty"`
	Kind event.Kind `json:"kind,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists calls and their events in execution order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCallTrace records an executed call.
func (r *Result) AddCallTrace(callID, op, caller, value, outcome string, args payload.Object) {
	r.Trace = append(r.Trace, TraceEntry{
		Type:    TraceCall,
		CallID:  callID,
		Op:      op,
		Caller:  caller,
		Value:   value,
		Outcome: outcome,
		Args:    args,
	})
}

// AddEventTrace records an emitted event.
func (r *Result) AddEventTrace(e event.Event) {
	r.Trace = append(r.Trace, TraceEntry{
		Type: TraceEvent,
		Seq:  e.Seq,
		Kind: e.Kind,
		Args: e.Args,
	})
}

// Events returns the event entries of the trace.
func (r *Result) Events() []TraceEntry {
	var out []TraceEntry
	for _, e := range r.Trace {
		if e.Type == TraceEvent {
			out = append(out, e)
		}
	}
	return out
}
