package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

func TestInspectCommandMissingArgs(t *testing.T) {
	_, err := execute(NewInspectCommand(testOptions(t, "text")), commandsScenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}

func TestInspectCommandText(t *testing.T) {
	out, err := execute(NewInspectCommand(testOptions(t, "text")), commandsScenario, "circ")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `Operation(name="circ", num_qubits=2, num_clbits=0, params=[theta])`, lines[0])
	assert.Equal(t, `  [0] Operation(name="h", num_qubits=1, num_clbits=0, params=[]) q[0]`, lines[1])
	assert.Equal(t, `  [1] Operation(name="crz", num_qubits=2, num_clbits=0, params=[theta]) q[0,1]`, lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "fingerprint: "))
}

func TestInspectCommandJSON(t *testing.T) {
	out, err := execute(NewInspectCommand(testOptions(t, "json")), commandsScenario, "measured")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "measured", resp.Data.Name)
	assert.Equal(t, "instruction", resp.Data.Kind)
	assert.Equal(t, 1, resp.Data.NumQubits)
	assert.Equal(t, 1, resp.Data.NumClbits)
	assert.Empty(t, resp.Data.Params)
	assert.NotEmpty(t, resp.Data.Fingerprint)
	assert.Contains(t, resp.Data.Document, "definition")
}

func TestInspectCommandFingerprintIsStable(t *testing.T) {
	first, err := execute(NewInspectCommand(testOptions(t, "text")), commandsScenario, "measured")
	require.NoError(t, err)
	second, err := execute(NewInspectCommand(testOptions(t, "text")), commandsScenario, "measured")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInspectCommandUnknownProgram(t *testing.T) {
	out, err := execute(NewInspectCommand(testOptions(t, "text")), commandsScenario, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_UNKNOWN_PROGRAM]")
	assert.Contains(t, err.Error(), `no program "nope"`)
}

func TestInspectCommandMissingScenario(t *testing.T) {
	out, err := execute(NewInspectCommand(testOptions(t, "json")), "testdata/absent.yaml", "circ")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeScenario, resp.Error.Code)
}

func TestWriteTree_NestedAndConditional(t *testing.T) {
	inner := op.NewDefinition(2, 0).
		MustAppend(gates.H(), 0).
		MustAppend(gates.CX(), 0, 1)
	bell := op.MustNew("bell", 2, 0, nil, op.WithDefinition(inner))

	outer := op.NewDefinition(2, 1)
	outer.GlobalPhase = 0.7853981633974483
	require.NoError(t, outer.Append(bell, []int{1, 0}, nil))
	require.NoError(t, outer.AppendStep(op.Step{
		Op:        gates.X(),
		Qubits:    []int{0},
		Condition: &op.Condition{Clbits: []int{0}, Value: 1},
	}))
	prog := op.MustNew("prog", 2, 1, []param.Value{}, op.WithDefinition(outer))

	buf := &bytes.Buffer{}
	require.NoError(t, writeTree(buf, prog, 0))
	assert.Equal(t, `Operation(name="prog", num_qubits=2, num_clbits=1, params=[])
  global_phase=pi/4
  [0] Operation(name="bell", num_qubits=2, num_clbits=0, params=[]) q[1,0]
    [0] Operation(name="h", num_qubits=1, num_clbits=0, params=[]) q[0]
    [1] Operation(name="cx", num_qubits=2, num_clbits=0, params=[]) q[0,1]
  [1] Operation(name="x", num_qubits=1, num_clbits=0, params=[]) q[0] if c[0]==1
`, buf.String())
}

func TestWriteTree_Opaque(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeTree(buf, op.MustNew("black_box", 1, 0, nil), 0))
	assert.Equal(t, "Operation(name=\"black_box\", num_qubits=1, num_clbits=0, params=[])\n", buf.String())
}
