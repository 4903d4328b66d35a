package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/store"
	"github.com/roach88/gatekit/internal/transform"
)

// Harness runs scenarios and records every check in a store.
type Harness struct {
	store    *store.Store // nil: a fresh in-memory store per Run
	runIDs   RunIDGenerator
	inverter *transform.Inverter
	compare  []op.CompareOption
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithStore records check runs in s instead of a throwaway in-memory store.
// The caller keeps ownership of s.
func WithStore(s *store.Store) Option {
	return func(h *Harness) {
		h.store = s
	}
}

// WithRunIDGenerator sets the run id source.
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(h *Harness) {
		h.runIDs = g
	}
}

// WithInverter sets the inverter used for programs and checks.
func WithInverter(inv *transform.Inverter) Option {
	return func(h *Harness) {
		h.inverter = inv
	}
}

// WithCompareOptions sets the default soft compare tolerances.
// A check's own rtol/atol take precedence.
func WithCompareOptions(opts ...op.CompareOption) Option {
	return func(h *Harness) {
		h.compare = opts
	}
}

// WithLogger sets the logger.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		runIDs: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.inverter == nil {
		h.inverter = transform.NewInverter(transform.WithLogger(h.logger))
	}
	return h
}

// Run executes a scenario with a fixed run id and logging suppressed, for
// golden comparison. Each call uses a fresh in-memory database.
func Run(scenario *Scenario) (*Result, error) {
	h := New(
		WithRunIDGenerator(NewFixedGenerator("run-"+scenario.Name)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return h.Run(context.Background(), scenario)
}

// Run builds the scenario's programs, evaluates each check in order and
// records the results under a new check run.
//
// A program that cannot be built is an error; a check that fails is not.
// Failed checks are reported in the Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st := h.store
	if st == nil {
		var err error
		st, err = store.Open(store.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	ws, err := Build(scenario, h.inverter, h.logger)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	runID := h.runIDs.Generate()
	if _, err := st.BeginRun(ctx, runID, scenario.Name); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	log := h.logger.With("scenario", scenario.Name, "run_id", runID)

	result := NewResult(scenario.Name, runID)
	var seq int64
	for _, check := range scenario.Checks {
		seq++
		out := ws.evaluate(check, h.compare)
		event := TraceEvent{
			Seq:      seq,
			Check:    check.ID,
			Type:     check.Type,
			Program:  check.Program,
			Passed:   out.err == nil,
			Observed: out.observed,
		}
		switch {
		case out.err == nil:
			log.Debug("check passed", "check", check.ID, "observed", out.observed)
		case isCheckError(out.err):
			event.Message = out.err.Error()
			log.Info("check failed", "check", check.ID, "error", out.err)
		default:
			event.Message = fmt.Sprintf("check %s (%s) could not be evaluated: %v", check.ID, check.Type, out.err)
			log.Warn("check errored", "check", check.ID, "error", out.err)
		}
		result.Record(event)

		if err := st.WriteCheckResult(ctx, store.CheckResult{
			RunID:    runID,
			Seq:      seq,
			Scenario: scenario.Name,
			CheckID:  check.ID,
			Passed:   event.Passed,
			Message:  event.Message,
		}); err != nil {
			return nil, fmt.Errorf("record check %s: %w", check.ID, err)
		}
	}

	log.Info("scenario finished", "checks", len(result.Trace), "failed", len(result.Failed()))
	return result, nil
}

// Workspace builds the scenario's programs without running any checks.
func (h *Harness) Workspace(scenario *Scenario) (*Workspace, error) {
	return Build(scenario, h.inverter, h.logger)
}
