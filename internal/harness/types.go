package harness

import "github.com/roach88/mrqart/internal/station"

// TraceEvent is one handled event as journaled.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Type    string `json:"type,omitempty"`
	Station string `json:"station,omitempty"`
	Verdict string `json:"verdict"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every handled event in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// View is the final snapshot.
	View station.View `json:"-"`

	PullsIssued  int64 `json:"pulls_issued"`
	PendingPulls int   `json:"pending_pulls"`
}

// NewResult creates a new passing result.
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
