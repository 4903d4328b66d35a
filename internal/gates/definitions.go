package gates

import (
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

type placement struct {
	gate   *op.Operation
	qubits []int
}

func on(gate *op.Operation, qubits ...int) placement {
	return placement{gate: gate, qubits: qubits}
}

func sequence(numQubits int, steps ...placement) (*op.Definition, error) {
	def := op.NewDefinition(numQubits, 0)
	for _, s := range steps {
		if err := def.Append(s.gate, s.qubits, nil); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// angle returns the single parameter of a controlled rotation.
func angle(o *op.Operation) (param.Value, error) {
	if len(o.Params()) != 1 {
		return nil, op.NewParamCountError(o.Name(), 1, len(o.Params()))
	}
	return o.Param(0), nil
}

func defineCZ(*op.Operation) (*op.Definition, error) {
	return sequence(2, on(H(), 1), on(CX(), 0, 1), on(H(), 1))
}

func defineCY(*op.Operation) (*op.Definition, error) {
	return sequence(2, on(Sdg(), 1), on(CX(), 0, 1), on(S(), 1))
}

func defineSwap(*op.Operation) (*op.Definition, error) {
	return sequence(2, on(CX(), 0, 1), on(CX(), 1, 0), on(CX(), 0, 1))
}

func defineCRZ(o *op.Operation) (*op.Definition, error) {
	theta, err := angle(o)
	if err != nil {
		return nil, err
	}
	return sequence(2,
		on(RZ(param.Scale(theta, 0.5)), 1),
		on(CX(), 0, 1),
		on(RZ(param.Scale(theta, -0.5)), 1),
		on(CX(), 0, 1),
	)
}

func defineCRX(o *op.Operation) (*op.Definition, error) {
	theta, err := angle(o)
	if err != nil {
		return nil, err
	}
	return sequence(2, on(H(), 1), on(CRZ(theta), 0, 1), on(H(), 1))
}

func defineCRY(o *op.Operation) (*op.Definition, error) {
	theta, err := angle(o)
	if err != nil {
		return nil, err
	}
	return sequence(2,
		on(RY(param.Scale(theta, 0.5)), 1),
		on(CX(), 0, 1),
		on(RY(param.Scale(theta, -0.5)), 1),
		on(CX(), 0, 1),
	)
}

func defineCP(o *op.Operation) (*op.Definition, error) {
	lambda, err := angle(o)
	if err != nil {
		return nil, err
	}
	return sequence(2,
		on(P(param.Scale(lambda, 0.5)), 0),
		on(CX(), 0, 1),
		on(P(param.Scale(lambda, -0.5)), 1),
		on(CX(), 0, 1),
		on(P(param.Scale(lambda, 0.5)), 1),
	)
}

func defineCCX(*op.Operation) (*op.Definition, error) {
	return sequence(3,
		on(H(), 2),
		on(CX(), 1, 2),
		on(Tdg(), 2),
		on(CX(), 0, 2),
		on(T(), 2),
		on(CX(), 1, 2),
		on(Tdg(), 2),
		on(CX(), 0, 2),
		on(T(), 1),
		on(T(), 2),
		on(H(), 2),
		on(CX(), 0, 1),
		on(T(), 0),
		on(Tdg(), 1),
		on(CX(), 0, 1),
	)
}
