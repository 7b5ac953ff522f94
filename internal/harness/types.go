package harness

import "github.com/roach88/vats/internal/device"

// Step outcomes recorded in the trace.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomePartial  = "partial"
)

// TraceEvent records one executed step and what came of it.
type TraceEvent struct {
	Seq       int      `json:"seq"`
	Op        string   `json:"op"`
	Target    string   `json:"target,omitempty"`
	Value     *int     `json:"value,omitempty"`
	Outcome   string   `json:"outcome"`
	Error     string   `json:"error,omitempty"` // error code when rejected
	Succeeded []string `json:"succeeded,omitempty"`
	Failed    []string `json:"failed,omitempty"`
	Suggested string   `json:"suggested,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the collection after the last step.
	Final []device.Device `json:"-"`

	// Saves counts store writes; one per mutating step.
	Saves int `json:"saves"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event, assigning its sequence number.
func (r *Result) AddTrace(event TraceEvent) {
	event.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, event)
}
