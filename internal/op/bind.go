package op

import (
	"fmt"

	"github.com/roach88/gatekit/internal/param"
)

// Bind returns a copy of o with symbols in its params replaced by values.
// An attached definition is rebound step by step; a lazy definition is
// recomputed from the bound params on first access. Shared children are
// bound once.
func (o *Operation) Bind(values map[param.Symbol]float64) (*Operation, error) {
	return o.bind(values, make(map[*Operation]*Operation))
}

func (o *Operation) bind(values map[param.Symbol]float64, memo map[*Operation]*Operation) (*Operation, error) {
	if b, ok := memo[o]; ok {
		return b, nil
	}
	c := o.Copy()
	for i, p := range c.params {
		v, err := param.Bind(p, values)
		if err != nil {
			return nil, fmt.Errorf("bind %s param %d: %w", o.name, i, err)
		}
		c.params[i] = v
	}
	if o.definition != nil {
		def := NewDefinition(o.definition.NumQubits, o.definition.NumClbits)
		def.GlobalPhase = o.definition.GlobalPhase
		for _, s := range o.definition.Steps {
			child, err := s.Op.bind(values, memo)
			if err != nil {
				return nil, err
			}
			s.Op = child
			if err := def.AppendStep(s); err != nil {
				return nil, err
			}
		}
		c.definition = def
	}
	memo[o] = c
	return c, nil
}
