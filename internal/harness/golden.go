package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vats/internal/store"
)

// Snapshot renders a scenario run for golden comparison: the trace, one
// line per step, followed by the final collection in the record file format.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	fmt.Fprintf(&buf, "saves: %d\n", result.Saves)
	buf.WriteString("trace:\n")
	for _, event := range result.Trace {
		fmt.Fprintf(&buf, "  %s\n", FormatEvent(event))
	}

	final, err := store.Marshal(result.Final)
	if err != nil {
		return nil, err
	}
	buf.WriteString("final:\n")
	buf.Write(final)

	return buf.Bytes(), nil
}

// FormatEvent renders one trace event on a single line.
func FormatEvent(event TraceEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", event.Seq, event.Op)
	if event.Target != "" {
		b.WriteString(" " + event.Target)
	}
	if event.Value != nil {
		fmt.Fprintf(&b, " value=%d", *event.Value)
	}
	b.WriteString(" -> " + event.Outcome)
	if event.Error != "" {
		b.WriteString(" " + event.Error)
	}
	if event.Outcome == OutcomePartial && len(event.Succeeded) > 0 {
		b.WriteString(" succeeded=" + strings.Join(event.Succeeded, ","))
	}
	if len(event.Failed) > 0 {
		b.WriteString(" failed=" + strings.Join(event.Failed, ","))
	}
	if event.Suggested != "" {
		b.WriteString(" suggested=" + event.Suggested)
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
