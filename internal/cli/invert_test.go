package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTransform(t *testing.T, out string) TransformResult {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   TransformResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestInvertCommandText(t *testing.T) {
	out, err := execute(NewInvertCommand(testOptions(t, "text")), commandsScenario, "circ")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `Operation(name="circ_dg", num_qubits=2`), lines[0])
	assert.Contains(t, lines[1], `[0] Operation(name="crz"`)
	assert.Contains(t, lines[1], "q[0,1]")
	assert.Contains(t, lines[2], `[1] Operation(name="h"`)
}

func TestInvertCommandJSON(t *testing.T) {
	out, err := execute(NewInvertCommand(testOptions(t, "json")), commandsScenario, "circ")
	require.NoError(t, err)

	result := decodeTransform(t, out)
	assert.Equal(t, "circ", result.Input)
	assert.Equal(t, "circ_dg", result.Name)
	assert.False(t, result.Deferred)
	assert.Equal(t, 2, result.NumQubits)
	assert.Len(t, result.Params, 1)
	assert.Empty(t, result.Fingerprint, "only saved results carry a fingerprint")
}

func TestInvertCommandAnnotated(t *testing.T) {
	out, err := execute(NewInvertCommand(testOptions(t, "json")), commandsScenario, "circ", "--annotated")
	require.NoError(t, err)

	result := decodeTransform(t, out)
	assert.Equal(t, "annotated", result.Name)
	assert.True(t, result.Deferred)
	assert.Equal(t, "circ_dg", result.Resolved)

	out, err = execute(NewInvertCommand(testOptions(t, "text")), commandsScenario, "circ", "--annotated")
	require.NoError(t, err)
	assert.Contains(t, out, "AnnotatedOperation(base=")
	assert.Contains(t, out, "modifiers=[inverse]")
	assert.Contains(t, out, `resolves to: Operation(name="circ_dg"`)
}

func TestInvertCommandNonInvertible(t *testing.T) {
	for _, annotated := range []bool{false, true} {
		args := []string{commandsScenario, "measured"}
		if annotated {
			args = append(args, "--annotated")
		}
		out, err := execute(NewInvertCommand(testOptions(t, "text")), args...)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error [NON_INVERTIBLE]")
	}
}

func TestReverseCommand(t *testing.T) {
	out, err := execute(NewReverseCommand(testOptions(t, "text")), commandsScenario, "measured")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `Operation(name="measured_reverse", num_qubits=1, num_clbits=1, params=[])`, lines[0])
	assert.Contains(t, lines[1], `[0] Operation(name="measure"`)
	assert.Contains(t, lines[1], "q[0] c[0]")
	assert.Contains(t, lines[2], `[1] Operation(name="h"`)
}

func TestTransformSaveIsIdempotent(t *testing.T) {
	db := filepath.Join(t.TempDir(), "library.db")

	out, err := execute(NewInvertCommand(testOptions(t, "json")), commandsScenario, "circ", "--save", "--db", db)
	require.NoError(t, err)
	first := decodeTransform(t, out)
	assert.True(t, first.Saved)
	assert.NotEmpty(t, first.Fingerprint)

	out, err = execute(NewInvertCommand(testOptions(t, "text")), commandsScenario, "circ", "--save", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "already stored: "+first.Fingerprint)
}

func TestTransformSaveUsesConfiguredDB(t *testing.T) {
	opts := testOptions(t, "text")
	opts.Config.DB = filepath.Join(t.TempDir(), "configured.db")

	out, err := execute(NewReverseCommand(opts), commandsScenario, "circ", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "saved: ")

	list, err := execute(NewLibraryCommand(opts), "list")
	require.NoError(t, err)
	assert.Contains(t, list, "circ_reverse")
}
