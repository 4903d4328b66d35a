package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatekit/internal/store"
)

const harnessScenarios = "../harness/testdata/scenarios"

func TestCheckCommandTooManyArgs(t *testing.T) {
	_, err := execute(NewCheckCommand(testOptions(t, "text")), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg")
}

func TestCheckCommandMissingDir(t *testing.T) {
	_, err := execute(NewCheckCommand(testOptions(t, "text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestCheckCommandEmptyDir(t *testing.T) {
	out, err := execute(NewCheckCommand(testOptions(t, "text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestCheckCommandEmptyDirJSON(t *testing.T) {
	out, err := execute(NewCheckCommand(testOptions(t, "json")), t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.NotNil(t, resp.Data.Scenarios)
}

func TestCheckCommandPasses(t *testing.T) {
	out, err := execute(NewCheckCommand(testOptions(t, "text")), harnessScenarios)
	require.NoError(t, err)

	for _, name := range []string{"closed_forms", "compaction", "crz_inverse", "deferred", "equality"} {
		assert.Contains(t, out, "✓ "+name)
	}
	assert.Contains(t, out, "Check Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestCheckCommandFilter(t *testing.T) {
	out, err := execute(NewCheckCommand(testOptions(t, "text")), harnessScenarios, "--filter", "c*.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ crz_inverse")
	assert.NotContains(t, out, "deferred")
	assert.Contains(t, out, "3 total")
}

func TestCheckCommandDefaultsToConfiguredDir(t *testing.T) {
	opts := testOptions(t, "text")
	opts.Config.Scenarios = "testdata/scenarios"

	out, err := execute(NewCheckCommand(opts))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ commands (2 checks)")
}

const failingScenario = `
name: failing
description: "The inverse of s is sdg, not s"
programs:
  - name: one
    qubits: 1
    steps:
      - {gate: s, qubits: [0]}
checks:
  - {id: wrong, type: inverse_name, program: one, step: 0, name: s}
  - {id: right, type: inverse_name, program: one, step: 0, name: sdg}
`

func TestCheckCommandFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(failingScenario), 0o644))

	out, err := execute(NewCheckCommand(testOptions(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing (1 of 2 checks failed)")
	assert.Contains(t, out, `expected name "s", got "sdg"`)
	assert.Contains(t, out, "Check Summary: 0 passed, 1 failed, 1 total")
}

func TestCheckCommandFailuresJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(failingScenario), 0o644))

	out, err := execute(NewCheckCommand(testOptions(t, "json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  *CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCheckFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.Equal(t, 2, resp.Data.Scenarios[0].Checks)
	assert.Len(t, resp.Data.Scenarios[0].Errors, 1)
}

func TestCheckCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\n"), 0o644))

	_, err := execute(NewCheckCommand(testOptions(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenarios")
}

func TestCheckCommandBuildError(t *testing.T) {
	dir := t.TempDir()
	content := `
name: broadcast
description: "appends never broadcast"
programs:
  - name: p
    qubits: 2
    steps:
      - {gate: h, qubits: [0, 1]}
checks:
  - {type: double_inverse, program: p}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broadcast.yaml"), []byte(content), 0o644))

	out, err := execute(NewCheckCommand(testOptions(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broadcast")
	assert.Contains(t, out, "Build error:")
}

func TestCheckCommandRecordsRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "checks.db")

	_, err := execute(NewCheckCommand(testOptions(t, "text")), harnessScenarios, "--db", db)
	require.NoError(t, err)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	latest, err := st.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "equality", latest.Source, "scenarios run in file order")
	assert.Equal(t, int64(5), latest.Seq)

	rows, err := st.ReadCheckResults(ctx, latest.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.True(t, row.Passed, row.CheckID)
	}
}
