package harness

// TraceEvent records one evaluated check.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Check    string `json:"check"`
	Type     string `json:"type"`
	Program  string `json:"program"`
	Passed   bool   `json:"passed"`
	Observed string `json:"observed,omitempty"` // Result name, error code, or same/different
	Message  string `json:"message,omitempty"`  // Failure detail; empty when Passed
}

// Result is the outcome of running one scenario.
type Result struct {
	Scenario string `json:"scenario"`
	RunID    string `json:"run_id"`

	// Pass is true if every check passed.
	Pass bool `json:"pass"`

	// Trace contains one event per check, in check order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains the failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario, runID string) *Result {
	return &Result{
		Scenario: scenario,
		RunID:    runID,
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Record appends a trace event, failing the result when the event failed.
func (r *Result) Record(event TraceEvent) {
	r.Trace = append(r.Trace, event)
	if !event.Passed {
		r.AddError(event.Message)
	}
}

// Failed returns the events that did not pass.
func (r *Result) Failed() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if !e.Passed {
			out = append(out, e)
		}
	}
	return out
}
