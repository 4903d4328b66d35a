package store

import (
	"context"
	"fmt"
)

// CheckRun identifies one harness run.
type CheckRun struct {
	ID     string
	Source string
	Seq    int64
}

// CheckResult is the outcome of one check within a run.
type CheckResult struct {
	RunID    string
	Seq      int64
	Scenario string
	CheckID  string
	Passed   bool
	Message  string
}

// BeginRun records a new run and returns it with its assigned seq.
// Uses ON CONFLICT(id) DO NOTHING; beginning an existing run returns the
// stored record.
func (s *Store) BeginRun(ctx context.Context, id, source string) (CheckRun, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CheckRun{}, fmt.Errorf("begin run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "check_runs")
	if err != nil {
		return CheckRun{}, fmt.Errorf("begin run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO check_runs (id, source, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, source, seq); err != nil {
		return CheckRun{}, fmt.Errorf("begin run: insert: %w", err)
	}

	var run CheckRun
	if err := tx.QueryRowContext(ctx, `
		SELECT id, source, seq FROM check_runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Source, &run.Seq); err != nil {
		return CheckRun{}, fmt.Errorf("begin run: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CheckRun{}, fmt.Errorf("begin run: commit: %w", err)
	}
	return run, nil
}

// WriteCheckResult appends a result to its run. Duplicate (run, seq) pairs
// are silently ignored.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteCheckResult(ctx context.Context, r CheckResult) error {
	passed := 0
	if r.Passed {
		passed = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO check_results
		(run_id, seq, scenario, check_id, passed, message)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		r.RunID,
		r.Seq,
		r.Scenario,
		r.CheckID,
		passed,
		r.Message,
	)
	if err != nil {
		return fmt.Errorf("write check result: %w", err)
	}
	return nil
}

// ReadCheckResults returns the results of a run ordered by seq.
// Returns an empty slice (not nil) if the run has no results.
func (s *Store) ReadCheckResults(ctx context.Context, runID string) ([]CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, scenario, check_id, passed, message
		FROM check_results
		WHERE run_id = ?
		ORDER BY seq ASC, check_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query check results: %w", err)
	}
	defer rows.Close()

	var results []CheckResult
	for rows.Next() {
		var r CheckResult
		var passed int
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Scenario, &r.CheckID, &passed, &r.Message); err != nil {
			return nil, fmt.Errorf("scan check result: %w", err)
		}
		r.Passed = passed == 1
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check results: %w", err)
	}

	if results == nil {
		results = []CheckResult{}
	}
	return results, nil
}

// LatestRun returns the run with the highest seq.
// Returns sql.ErrNoRows if no run was recorded.
func (s *Store) LatestRun(ctx context.Context) (CheckRun, error) {
	var run CheckRun
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, seq FROM check_runs
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&run.ID, &run.Source, &run.Seq)
	if err != nil {
		return CheckRun{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}
