package program

import (
	"fmt"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/transform"
)

// Inverse returns a program named <name>_dg with the steps in reverse order,
// each operation inverted and the global phase negated. Measurement, reset
// and conditional steps make the whole call fail.
func (p *Program) Inverse() (*Program, error) {
	out := p.emptyCopy(transform.InverseName(p.name))
	out.body.GlobalPhase = -p.body.GlobalPhase
	for i := len(p.body.Steps) - 1; i >= 0; i-- {
		s := p.body.Steps[i]
		if s.Condition != nil {
			return nil, op.NewNonInvertibleError(p.name,
				fmt.Sprintf("cannot invert program containing a conditional step (step %d, %s)", i, s.Op.Name()))
		}
		switch s.Op.Kind() {
		case op.KindMeasure, op.KindReset:
			return nil, op.NewNonInvertibleError(p.name,
				fmt.Sprintf("cannot invert program containing %s (step %d)", s.Op.Kind(), i))
		}
		inv, err := p.inverter.InverseOperation(s.Op)
		if err != nil {
			return nil, fmt.Errorf("invert %s step %d: %w", p.name, i, err)
		}
		s.Op = inv
		if err := out.body.AppendStep(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReverseOps returns a program named <name>_reverse with the steps in
// reverse order. Operations, conditions and the global phase are unchanged.
func (p *Program) ReverseOps() *Program {
	out := p.emptyCopy(transform.ReverseName(p.name))
	out.body.GlobalPhase = p.body.GlobalPhase
	for i := len(p.body.Steps) - 1; i >= 0; i-- {
		out.body.Steps = append(out.body.Steps, p.body.Steps[i])
	}
	return out
}

// Decompose expands every step with a definition by one level. Opaque
// operations are kept as they are. A conditional step passes its condition
// to each expanded step; a definition that is itself conditional cannot be
// expanded under a condition.
func (p *Program) Decompose() (*Program, error) {
	out := p.emptyCopy(p.name)
	out.body.GlobalPhase = p.body.GlobalPhase
	for i, s := range p.body.Steps {
		def, err := s.Op.Definition()
		if err != nil {
			return nil, fmt.Errorf("decompose %s step %d: %w", p.name, i, err)
		}
		if def == nil {
			if err := out.body.AppendStep(s); err != nil {
				return nil, err
			}
			continue
		}
		out.body.GlobalPhase += def.GlobalPhase
		for j, sub := range def.Steps {
			expanded := op.Step{
				Op:        sub.Op,
				Qubits:    lift(sub.Qubits, s.Qubits),
				Clbits:    lift(sub.Clbits, s.Clbits),
				Condition: s.Condition,
			}
			if sub.Condition != nil {
				if s.Condition != nil {
					return nil, fmt.Errorf("decompose %s step %d.%d: nested conditions on %s", p.name, i, j, sub.Op.Name())
				}
				expanded.Condition = &op.Condition{Clbits: lift(sub.Condition.Clbits, s.Clbits), Value: sub.Condition.Value}
			}
			if err := out.body.AppendStep(expanded); err != nil {
				return nil, fmt.Errorf("decompose %s step %d.%d: %w", p.name, i, j, err)
			}
		}
	}
	return out, nil
}

// lift maps local definition bits onto the bits the parent step acts on.
func lift(local, parent []int) []int {
	if local == nil {
		return nil
	}
	out := make([]int, len(local))
	for i, b := range local {
		out[i] = parent[b]
	}
	return out
}
