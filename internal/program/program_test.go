package program

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
	"github.com/roach88/gatekit/internal/transform"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func f(x float64) param.Value { return param.Float(x) }

func TestRegistersLayout(t *testing.T) {
	p := MustNew("layout", quiet(), WithQubits(2), WithRegister(QubitKind, "anc", 3), WithClbits(1))

	assert.Equal(t, 5, p.NumQubits())
	assert.Equal(t, 1, p.NumClbits())

	regs := p.QubitRegisters()
	require.Len(t, regs, 2)
	assert.Regexp(t, `^q\d+$`, regs[0].Name())
	assert.Equal(t, "anc", regs[1].Name())
	assert.Equal(t, 2, regs[1].Index(0))
	assert.Equal(t, []int{2, 3, 4}, regs[1].Indices())
	assert.Equal(t, "anc[3]", regs[1].String())
	assert.Regexp(t, `^c\d+$`, p.ClbitRegisters()[0].Name())
}

func TestAutoNamesAreUnique(t *testing.T) {
	a := MustNew("a", quiet(), WithQubits(1))
	b := MustNew("b", quiet(), WithQubits(1))
	assert.NotEqual(t, a.QubitRegisters()[0].Name(), b.QubitRegisters()[0].Name())
}

func TestNewRejects(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New("dup", WithRegister(QubitKind, "r", 1), WithRegister(QubitKind, "r", 2))
	assert.ErrorContains(t, err, `duplicate qubit register "r"`)

	_, err = New("neg", WithQubits(-1))
	assert.Error(t, err)
}

func TestAppendShapeErrors(t *testing.T) {
	p := MustNew("circ", quiet(), WithQubits(2), WithClbits(1))
	opaque := op.MustNew("opaque_gate", 2, 0, nil)

	tests := []struct {
		name   string
		o      *op.Operation
		qubits []int
		clbits []int
		check  func(error) bool
	}{
		{"too few qubits", opaque, []int{0}, nil, op.IsShapeError},
		{"unexpected clbit", gates.H(), []int{0}, []int{0}, op.IsShapeError},
		{"duplicate qubit", gates.CX(), []int{1, 1}, nil, op.IsShapeError},
		{"qubit out of range", gates.H(), []int{2}, nil, func(err error) bool { return op.HasCode(err, op.ErrCodeUnknownBit) }},
		{"clbit out of range", gates.Measure(), []int{0}, []int{3}, func(err error) bool { return op.HasCode(err, op.ErrCodeUnknownBit) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Append(tt.o, tt.qubits, tt.clbits)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
	assert.Equal(t, 0, p.Len(), "failed appends leave no trace")
}

func TestAppendValue(t *testing.T) {
	p := MustNew("circ", quiet(), WithQubits(1))

	_, err := p.AppendValue(gates.H, []int{0}, nil)
	require.Error(t, err)
	assert.True(t, op.IsNotOperation(err))
	assert.Contains(t, err.Error(), "op.Operator")
	assert.Contains(t, err.Error(), "constructor")

	_, err = p.AppendValue(42, []int{0}, nil)
	assert.True(t, op.IsNotOperation(err))
	assert.NotContains(t, err.Error(), "constructor")

	step, err := p.AppendValue(gates.H(), []int{0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "h", step.Op.Name())
}

func TestAppendResolvesAnnotated(t *testing.T) {
	inner := MustNew("inner", quiet(), WithQubits(1)).MustAppend(gates.S(), 0).MustAppend(gates.H(), 0)
	custom, err := inner.ToInstruction()
	require.NoError(t, err)

	deferred, err := transform.Inverse(custom, true)
	require.NoError(t, err)
	require.IsType(t, &transform.AnnotatedOperation{}, deferred)

	p := MustNew("outer", quiet(), WithQubits(1))
	step, err := p.Append(deferred, []int{0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "inner_dg", step.Op.Name())
}

func TestStepsAreCopies(t *testing.T) {
	p := MustNew("circ", quiet(), WithQubits(1)).MustAppend(gates.X(), 0)
	steps := p.Steps()
	steps[0].Op = gates.Y()
	assert.Equal(t, "x", p.Steps()[0].Op.Name())
}

func TestEqual(t *testing.T) {
	build := func(phase float64, gate *op.Operation) *Program {
		p := MustNew("circ", quiet(), WithQubits(2), WithGlobalPhase(phase))
		return p.MustAppend(gates.H(), 0).MustAppend(gate, 0, 1)
	}
	assert.True(t, build(0.1, gates.CX()).Equal(build(0.1, gates.CX())))
	assert.False(t, build(0.1, gates.CX()).Equal(build(0.2, gates.CX())))
	assert.False(t, build(0.1, gates.CX()).Equal(build(0.1, gates.CZ())))

	wider := MustNew("circ", quiet(), WithQubits(3), WithGlobalPhase(0.1)).MustAppend(gates.H(), 0).MustAppend(gates.CX(), 0, 1)
	assert.False(t, build(0.1, gates.CX()).Equal(wider))
}

func TestParametersAndAssign(t *testing.T) {
	theta := param.NewParameter("theta")
	alpha := param.NewParameter("alpha")
	p := MustNew("param_circ", quiet(), WithQubits(2)).
		MustAppend(gates.RZ(theta), 0).
		MustAppend(gates.CP(alpha), 0, 1).
		MustAppend(gates.RX(theta), 1)

	syms := p.Parameters()
	require.Len(t, syms, 2)
	assert.Equal(t, "alpha", syms[0].Name)
	assert.Equal(t, "theta", syms[1].Name)

	bound, err := p.AssignParameters(map[param.Symbol]float64{syms[1]: 0.5})
	require.NoError(t, err)
	steps := bound.Steps()
	assert.True(t, steps[0].Op.Equal(gates.RZ(f(0.5))))
	assert.True(t, steps[2].Op.Equal(gates.RX(f(0.5))))
	assert.True(t, steps[1].Op.Equal(gates.CP(alpha)), "unbound symbols stay free")
	assert.True(t, p.Steps()[0].Op.Equal(gates.RZ(theta)), "original untouched")

	def, err := steps[0].Op.Definition()
	require.NoError(t, err)
	assert.Nil(t, def, "rz stays opaque after binding")
}

func TestAssignParametersRebindsNestedDefinitions(t *testing.T) {
	theta := param.NewParameter("theta")
	inner := MustNew("inner", quiet(), WithQubits(1)).MustAppend(gates.RZ(theta), 0)
	custom, err := inner.ToInstruction()
	require.NoError(t, err)

	p := MustNew("outer", quiet(), WithQubits(1)).MustAppend(custom, 0)
	bound, err := p.AssignParameters(map[param.Symbol]float64{p.Parameters()[0]: 0.25})
	require.NoError(t, err)

	child := bound.Steps()[0].Op
	assert.True(t, param.EqualSlices([]param.Value{f(0.25)}, child.Params()))
	def, err := child.Definition()
	require.NoError(t, err)
	assert.True(t, def.Steps[0].Op.Equal(gates.RZ(f(0.25))))
}
