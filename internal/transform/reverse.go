package transform

import (
	"fmt"

	"github.com/roach88/gatekit/internal/op"
)

// Reverse returns o with its top-level steps in reverse order. Children are
// not modified, conditions stay on their steps and the global phase is kept.
// Opaque and builtin operations reverse to an equal copy; a builtin's
// definition is a decomposition, not a program to reorder. Only a failing
// lazy definition produces an error.
func Reverse(o *op.Operation) (*op.Operation, error) {
	if o.IsOpaque() || o.IsBuiltin() {
		return o.Copy(), nil
	}
	def, err := o.Definition()
	if err != nil {
		return nil, fmt.Errorf("reverse %s: %w", o.Name(), err)
	}
	if def == nil {
		return o.Copy(), nil
	}

	reversed := op.NewDefinition(def.NumQubits, def.NumClbits)
	reversed.GlobalPhase = def.GlobalPhase
	for i := len(def.Steps) - 1; i >= 0; i-- {
		if err := reversed.AppendStep(def.Steps[i]); err != nil {
			return nil, fmt.Errorf("reverse %s step %d: %w", o.Name(), i, err)
		}
	}
	return o.Derive(ReverseName(o.Name()), o.Params(), reversed)
}
