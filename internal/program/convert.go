package program

import (
	"fmt"
	"slices"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

type convertConfig struct {
	requireSteps bool
	label        any
}

// ConvertOption configures ToInstruction and ToGate.
type ConvertOption func(*convertConfig)

// RequireSteps makes conversion of an empty program fail with EMPTY_PROGRAM.
func RequireSteps() ConvertOption {
	return func(c *convertConfig) {
		c.requireSteps = true
	}
}

// WithLabel sets the label of the resulting operation.
func WithLabel(label any) ConvertOption {
	return func(c *convertConfig) {
		c.label = label
	}
}

// ToInstruction captures the recording as an operation named after the
// program. The operation's slots are the bits the steps reference, numbered
// in ascending program order; its params are the program's free symbols.
func (p *Program) ToInstruction(opts ...ConvertOption) (*op.Operation, error) {
	return p.convert(op.KindInstruction, opts)
}

// ToGate is ToInstruction for unitary programs. Programs with clbits,
// measurement, reset or conditional steps fail with NOT_UNITARY.
func (p *Program) ToGate(opts ...ConvertOption) (*op.Operation, error) {
	if p.body.NumClbits > 0 {
		return nil, p.notUnitary(fmt.Sprintf("program declares %d clbits", p.body.NumClbits))
	}
	for i, s := range p.body.Steps {
		if s.Condition != nil {
			return nil, p.notUnitary(fmt.Sprintf("step %d (%s) is conditional", i, s.Op.Name()))
		}
		switch s.Op.Kind() {
		case op.KindMeasure, op.KindReset:
			return nil, p.notUnitary(fmt.Sprintf("step %d is a %s", i, s.Op.Kind()))
		}
	}
	return p.convert(op.KindGate, opts)
}

func (p *Program) notUnitary(reason string) error {
	return &op.Error{
		Code:      op.ErrCodeNotUnitary,
		Message:   "cannot convert to gate: " + reason,
		Operation: p.name,
	}
}

func (p *Program) convert(kind op.Kind, opts []ConvertOption) (*op.Operation, error) {
	var cfg convertConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.requireSteps && p.body.Len() == 0 {
		return nil, &op.Error{
			Code:      op.ErrCodeEmptyProgram,
			Message:   "program has no steps",
			Operation: p.name,
		}
	}

	qubitMap, clbitMap := p.usedBits()
	def := op.NewDefinition(len(qubitMap), len(clbitMap))
	def.GlobalPhase = p.body.GlobalPhase
	for i, s := range p.body.Steps {
		local := op.Step{
			Op:     s.Op,
			Qubits: remap(s.Qubits, qubitMap),
			Clbits: remap(s.Clbits, clbitMap),
		}
		if s.Condition != nil {
			local.Condition = &op.Condition{Clbits: remap(s.Condition.Clbits, clbitMap), Value: s.Condition.Value}
		}
		if err := def.AppendStep(local); err != nil {
			return nil, fmt.Errorf("convert %s step %d: %w", p.name, i, err)
		}
	}

	symbols := p.Parameters()
	params := make([]param.Value, len(symbols))
	for i, sym := range symbols {
		params[i] = sym.Expr()
	}

	result, err := op.New(p.name, def.NumQubits, def.NumClbits, params,
		op.WithKind(kind), op.WithDefinition(def), op.WithLabel(cfg.label))
	if err != nil {
		return nil, err
	}
	p.logger.Debug("converted program",
		"program", p.name,
		"kind", kind.String(),
		"declared_qubits", p.body.NumQubits,
		"used_qubits", def.NumQubits,
		"declared_clbits", p.body.NumClbits,
		"used_clbits", def.NumClbits)
	return result, nil
}

// usedBits maps each referenced program bit to its local slot.
func (p *Program) usedBits() (qubits, clbits map[int]int) {
	var qs, cs []int
	for _, s := range p.body.Steps {
		qs = append(qs, s.Qubits...)
		cs = append(cs, s.Clbits...)
		if s.Condition != nil {
			cs = append(cs, s.Condition.Clbits...)
		}
	}
	return slotMap(qs), slotMap(cs)
}

func slotMap(bits []int) map[int]int {
	slices.Sort(bits)
	bits = slices.Compact(bits)
	m := make(map[int]int, len(bits))
	for i, b := range bits {
		m[b] = i
	}
	return m
}

func remap(bits []int, m map[int]int) []int {
	if bits == nil {
		return nil
	}
	out := make([]int, len(bits))
	for i, b := range bits {
		out[i] = m[b]
	}
	return out
}
