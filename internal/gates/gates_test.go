package gates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

func TestEveryNamedGateBuilds(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			nq, _, np, ok := Arity(name)
			require.True(t, ok)
			if name == "barrier" {
				nq = 3
			}
			params := make([]param.Value, np)
			for i := range params {
				params[i] = param.Float(0.1 * float64(i+1))
			}
			g, found := Lookup(name, nq, params)
			require.True(t, found)
			assert.Equal(t, name, g.Name())
			assert.True(t, g.IsBuiltin())
			assert.Equal(t, nq, g.NumQubits())
		})
	}
}

func TestLookupRejectsBadArity(t *testing.T) {
	_, ok := Lookup("rx", 1, nil)
	assert.False(t, ok)

	_, ok = Lookup("cx", 1, nil)
	assert.False(t, ok)

	_, ok = Lookup("teleport", 1, nil)
	assert.False(t, ok)

	_, ok = Lookup("barrier", 0, nil)
	assert.False(t, ok)

	_, err := New("cx", 3, nil)
	assert.True(t, op.IsShapeError(err))

	_, err = New("rx", 1, nil)
	assert.ErrorContains(t, err, "takes 1 params")
}

func TestKinds(t *testing.T) {
	assert.Equal(t, op.KindGate, H().Kind())
	assert.Equal(t, op.KindMeasure, Measure().Kind())
	assert.Equal(t, 1, Measure().NumClbits())
	assert.Equal(t, op.KindReset, Reset().Kind())
	assert.Equal(t, op.KindBarrier, Barrier(4).Kind())
}

func TestPrimitivesAreOpaque(t *testing.T) {
	for _, g := range []*op.Operation{H(), X(), S(), T(), CX(), RZ(param.Float(0.2)), U(param.Float(0.1), param.Float(0.2), param.Float(0.3)), Measure()} {
		assert.True(t, g.IsOpaque(), g.Name())
	}
}

func TestCompositeDefinitions(t *testing.T) {
	tests := []struct {
		gate  *op.Operation
		steps []string
	}{
		{CZ(), []string{"h", "cx", "h"}},
		{CY(), []string{"sdg", "cx", "s"}},
		{Swap(), []string{"cx", "cx", "cx"}},
		{CRZ(param.Float(0.1)), []string{"rz", "cx", "rz", "cx"}},
		{CRX(param.Float(0.1)), []string{"h", "crz", "h"}},
		{CRY(param.Float(0.1)), []string{"ry", "cx", "ry", "cx"}},
		{CP(param.Float(0.1)), []string{"p", "cx", "p", "cx", "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.gate.Name(), func(t *testing.T) {
			def, err := tt.gate.Definition()
			require.NoError(t, err)
			require.NotNil(t, def)
			names := make([]string, def.Len())
			for i, s := range def.Steps {
				names[i] = s.Op.Name()
				assert.True(t, s.Op.IsBuiltin())
			}
			assert.Equal(t, tt.steps, names)
			assert.Equal(t, tt.gate.NumQubits(), def.NumQubits)
		})
	}

	ccx, err := CCX().Definition()
	require.NoError(t, err)
	assert.Equal(t, 15, ccx.Len())
}

func TestCRZDefinitionHalvesAngle(t *testing.T) {
	def, err := CRZ(param.Float(0.1)).Definition()
	require.NoError(t, err)

	assert.True(t, def.Steps[0].Op.Equal(RZ(param.Float(0.05))))
	assert.True(t, def.Steps[2].Op.Equal(RZ(param.Float(-0.05))))
	assert.Equal(t, []int{1}, def.Steps[0].Qubits)
}

func TestControlledRotationRejectsMissingAngle(t *testing.T) {
	crz := CRZ(param.Float(0.1))
	assert.True(t, op.IsShapeError(crz.SetParams(nil)))
	_, err := crz.Definition()
	require.NoError(t, err)

	for _, definer := range []op.Definer{defineCRX, defineCRY, defineCRZ, defineCP} {
		bare := op.MustNew("crz", 2, 0, nil)
		_, err := definer(bare)
		assert.True(t, op.IsShapeError(err))
	}
}

func TestSymbolicCompositeDefinition(t *testing.T) {
	theta := param.NewParameter("theta")
	def, err := CP(theta).Definition()
	require.NoError(t, err)

	assert.True(t, param.Equal(param.Scale(theta, 0.5), def.Steps[0].Op.Param(0)))
	assert.True(t, param.Equal(param.Scale(theta, -0.5), def.Steps[2].Op.Param(0)))
}

func TestInverseTable(t *testing.T) {
	inv := Inverses()
	f := func(x float64) param.Value { return param.Float(x) }

	tests := []struct {
		name string
		in   *op.Operation
		want *op.Operation
	}{
		{"h self inverse", H(), H()},
		{"cx self inverse", CX(), CX()},
		{"ccx self inverse", CCX(), CCX()},
		{"s to sdg", S(), Sdg()},
		{"sdg to s", Sdg(), S()},
		{"t to tdg", T(), Tdg()},
		{"sx to sxdg", SX(), SXdg()},
		{"rz negated", RZ(f(0.3)), RZ(f(-0.3))},
		{"crz negated", CRZ(f(0.1)), CRZ(f(-0.1))},
		{"cp negated", CP(f(-0.1)), CP(f(0.1))},
		{"u swaps phi and lambda", U(f(0.1), f(0.2), f(-0.2)), U(f(-0.1), f(0.2), f(-0.2))},
		{"u general", U(f(0.1), f(0.2), f(0.3)), U(f(-0.1), f(-0.3), f(-0.2))},
		{"barrier keeps width", Barrier(3), Barrier(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := inv[tt.in.Name()]
			require.True(t, ok)
			got, err := fn(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got)
			assert.True(t, got.IsBuiltin())
			assert.NotSame(t, tt.in, got)
		})
	}

	_, ok := inv["measure"]
	assert.False(t, ok)
	_, ok = inv["reset"]
	assert.False(t, ok)
}
