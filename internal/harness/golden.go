package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/bazaar/internal/event"
)

// RenderTrace renders a trace one entry per line: calls as
//
//	<call_id> <caller> <op> <args> [value=<v>] -> <outcome>
//
// and each emitted event indented beneath its call in event.Event.String
// form.
func RenderTrace(trace []TraceEntry) []string {
	lines := make([]string, 0, len(trace))
	for _, e := range trace {
		switch e.Type {
		case TraceCall:
			line := fmt.Sprintf("%s %s %s %s", e.CallID, e.Caller, e.Op, formatArgs(e.Args))
			if e.Value != "" {
				line += " value=" + e.Value
			}
			lines = append(lines, line+" -> "+e.Outcome)
		case TraceEvent:
			ev := event.Event{Seq: e.Seq, Kind: e.Kind, Args: e.Args}
			lines = append(lines, "  "+ev.String())
		}
	}
	return lines
}

// Snapshot is the golden file content for a scenario result.
func Snapshot(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, line := range RenderTrace(result.Trace) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
