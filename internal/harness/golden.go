package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/gatekit/internal/canon"
)

// toCanonicalMap converts a Result to the map form canon.Marshal accepts.
// Empty optional fields are omitted.
func (r *Result) toCanonicalMap() map[string]any {
	trace := make([]any, len(r.Trace))
	for i, e := range r.Trace {
		event := map[string]any{
			"seq":     e.Seq,
			"check":   e.Check,
			"type":    e.Type,
			"program": e.Program,
			"passed":  e.Passed,
		}
		if e.Observed != "" {
			event["observed"] = e.Observed
		}
		if e.Message != "" {
			event["message"] = e.Message
		}
		trace[i] = event
	}
	return map[string]any{
		"scenario": r.Scenario,
		"run_id":   r.RunID,
		"pass":     r.Pass,
		"trace":    trace,
	}
}

// CanonicalTrace renders the result as canonical JSON.
func (r *Result) CanonicalTrace() ([]byte, error) {
	return canon.Marshal(r.toCanonicalMap())
}

// TraceHash is the domain-separated hash of the canonical trace.
func (r *Result) TraceHash() (string, error) {
	return canon.Hash(canon.DomainTrace, r.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its canonical trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
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
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := result.CanonicalTrace()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
