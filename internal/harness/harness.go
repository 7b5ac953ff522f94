package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/vats/internal/device"
	"github.com/roach88/vats/internal/engine"
	"github.com/roach88/vats/internal/store"
	"github.com/roach88/vats/internal/testutil"
)

// DefaultStep is how far the scenario clock advances per reading when the
// scenario does not say.
const DefaultStep = time.Minute

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock against an in-memory store.
type Harness struct {
	store  *store.MemoryStore
	engine *engine.Engine
	clock  *testutil.StepClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store for isolation.
//
// Execution flow:
// 1. Decode the initial records through the file codec
// 2. Build the engine with a StepClock
// 3. Execute steps, checking expect clauses and saving after mutations
// 4. Evaluate assertions against the final collection
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for store calls.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	start := testutil.DefaultStart
	if scenario.Now != "" {
		t, err := device.ParseTimestamp(scenario.Now)
		if err != nil {
			return nil, fmt.Errorf("invalid now: %w", err)
		}
		start = t
	}
	step := DefaultStep
	if scenario.Step != "" {
		d, err := time.ParseDuration(scenario.Step)
		if err != nil {
			return nil, fmt.Errorf("invalid step: %w", err)
		}
		step = d
	}

	initial, err := decodeDevices(scenario, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}

	cfg := engine.DefaultConfig()
	if scenario.Priorities != nil {
		cfg.Priorities = scenario.Priorities
	}

	st := store.NewMemoryStore(initial...)
	loaded, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	clock := testutil.NewStepClock(start, step)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	h := &Harness{
		store:  st,
		engine: engine.New(loaded, cfg, engine.WithClock(clock), engine.WithLogger(logger)),
		clock:  clock,
		logger: logger,
	}

	result := NewResult()
	for i, s := range scenario.Steps {
		if err := h.executeStep(ctx, i, s, result); err != nil {
			return nil, fmt.Errorf("failed to execute steps[%d]: %w", i, err)
		}
	}

	for _, errMsg := range EvaluateAssertions(h.engine, scenario.Assertions) {
		result.AddError(errMsg)
	}

	result.Final = h.engine.Devices()
	result.Saves = st.Saves()
	return result, nil
}

// decodeDevices runs the initial records through the file codec so
// scenarios get the same shape checks as a record file.
func decodeDevices(scenario *Scenario, start time.Time) ([]device.Device, error) {
	records := make([]DeviceRecord, len(scenario.Devices))
	copy(records, scenario.Devices)
	for i := range records {
		if records[i].LastUsed == "" {
			records[i].LastUsed = device.FormatTimestamp(start)
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	return store.Unmarshal(scenario.Name, data)
}

// executeStep runs one step, records it in the trace and checks its
// expect clause. Returned errors are harness failures, not step rejections.
func (h *Harness) executeStep(ctx context.Context, index int, s Step, result *Result) error {
	event := TraceEvent{Op: s.Op, Value: s.Value, Outcome: OutcomeOK}
	mutated := false

	var opErr error
	switch s.Op {
	case OpCheckout, OpReturn:
		event.Target = strings.Join(s.IDs, ",")
		var batch engine.BatchResult
		if s.Op == OpCheckout {
			batch = h.engine.CheckoutBatch(s.IDs)
		} else {
			batch = h.engine.ReturnBatch(s.IDs)
		}
		event.Succeeded = batch.Succeeded
		for _, f := range batch.Failed {
			event.Failed = append(event.Failed, f.DeviceID)
		}
		if !batch.OK() {
			event.Outcome = OutcomePartial
			if len(batch.Succeeded) == 0 {
				event.Outcome = OutcomeRejected
			}
		}
		mutated = len(batch.Succeeded) > 0

	case OpToggle:
		event.Target = s.ID
		_, opErr = h.engine.Toggle(s.ID)

	case OpSetPriority:
		event.Target = s.ID
		opErr = h.engine.SetPriority(s.ID, *s.Value)

	case OpClearPriority:
		event.Target = s.ID
		opErr = h.engine.ClearPriority(s.ID)

	case OpAdd:
		event.Target = device.NormalizeKey(s.Fields.ID)
		_, opErr = h.engine.Add(s.Fields.toFields())

	case OpEdit:
		event.Target = s.ID
		opErr = h.engine.Edit(s.ID, s.Fields.toFields())

	case OpRemove:
		event.Target = strings.Join(s.IDs, ",")
		opErr = h.engine.Remove(s.IDs)

	case OpSuggest:
		if d, ok := h.engine.Suggest(); ok {
			event.Suggested = d.ID
		}

	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}

	if opErr != nil {
		code := device.CodeOf(opErr)
		if code == "" {
			return opErr
		}
		event.Outcome = OutcomeRejected
		event.Error = string(code)
	} else if s.Op != OpCheckout && s.Op != OpReturn && s.Op != OpSuggest {
		mutated = true
	}

	if mutated {
		if err := h.store.Save(ctx, h.engine.Devices()); err != nil {
			return err
		}
	}

	result.AddTrace(event)
	for _, msg := range checkExpect(index, s, event) {
		result.AddError(msg)
	}
	return nil
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(index int, s Step, event TraceEvent) []string {
	var errs []string
	prefix := fmt.Sprintf("steps[%d] (%s)", index, s.Op)

	exp := s.Expect
	if exp == nil {
		if event.Outcome != OutcomeOK {
			errs = append(errs, fmt.Sprintf("%s: expected success, got %s%s", prefix, event.Outcome, describeFailure(event)))
		}
		return errs
	}

	if event.Error != exp.Error {
		errs = append(errs, fmt.Sprintf("%s: expected error %q, got %q", prefix, exp.Error, event.Error))
	}

	if exp.Succeeded != nil || exp.Failed != nil {
		if !equalIDs(exp.Succeeded, event.Succeeded) {
			errs = append(errs, fmt.Sprintf("%s: expected succeeded %v, got %v", prefix, exp.Succeeded, event.Succeeded))
		}
		if !equalIDs(exp.Failed, event.Failed) {
			errs = append(errs, fmt.Sprintf("%s: expected failed %v, got %v", prefix, exp.Failed, event.Failed))
		}
	}

	if s.Op == OpSuggest {
		switch {
		case exp.None && event.Suggested != "":
			errs = append(errs, fmt.Sprintf("%s: expected no suggestion, got %q", prefix, event.Suggested))
		case exp.Suggested != "" && exp.Suggested != event.Suggested:
			errs = append(errs, fmt.Sprintf("%s: expected suggestion %q, got %q", prefix, exp.Suggested, event.Suggested))
		}
	}
	return errs
}

func describeFailure(event TraceEvent) string {
	switch {
	case event.Error != "":
		return " " + event.Error
	case len(event.Failed) > 0:
		return " failed=" + strings.Join(event.Failed, ",")
	default:
		return ""
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
