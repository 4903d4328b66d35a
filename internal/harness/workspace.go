package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
	"github.com/roach88/gatekit/internal/program"
	"github.com/roach88/gatekit/internal/transform"
)

// Workspace holds the programs built from one scenario.
type Workspace struct {
	scenario *Scenario
	symbols  map[string]param.Symbol
	programs map[string]*program.Program
	specs    map[string]ProgramSpec

	// Instructions are cached so that every use of a program shares one
	// operation, the way a caller appending the same instruction twice would.
	instructions map[string]*op.Operation

	inverter *transform.Inverter
	logger   *slog.Logger
}

// Build constructs every program declared by s, in order.
func Build(s *Scenario, inverter *transform.Inverter, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if inverter == nil {
		inverter = transform.NewInverter(transform.WithLogger(logger))
	}
	w := &Workspace{
		scenario:     s,
		symbols:      make(map[string]param.Symbol, len(s.Symbols)),
		programs:     make(map[string]*program.Program, len(s.Programs)),
		specs:        make(map[string]ProgramSpec, len(s.Programs)),
		instructions: make(map[string]*op.Operation),
		inverter:     inverter,
		logger:       logger,
	}
	for _, name := range s.Symbols {
		w.symbols[name] = param.NewSymbol(name)
	}
	for _, spec := range s.Programs {
		p, err := w.buildProgram(spec)
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", spec.Name, err)
		}
		w.programs[spec.Name] = p
		w.specs[spec.Name] = spec
	}
	return w, nil
}

func (w *Workspace) buildProgram(spec ProgramSpec) (*program.Program, error) {
	opts := []program.Option{
		program.WithQubits(spec.Qubits),
		program.WithClbits(spec.Clbits),
		program.WithLogger(w.logger),
		program.WithInverter(w.inverter),
	}
	if spec.Phase != "" {
		phase, err := w.number(spec.Phase)
		if err != nil {
			return nil, fmt.Errorf("phase: %w", err)
		}
		opts = append(opts, program.WithGlobalPhase(phase))
	}
	p, err := program.New(spec.OperationName(), opts...)
	if err != nil {
		return nil, err
	}

	for i, step := range spec.Steps {
		operator, err := w.operator(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if step.Condition != nil {
			cond := op.Condition{Clbits: step.Condition.Clbits, Value: step.Condition.Value}
			_, err = p.AppendIf(operator, step.Qubits, step.Clbits, cond)
		} else {
			_, err = p.Append(operator, step.Qubits, step.Clbits)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return p, nil
}

// operator builds the operation a step appends.
func (w *Workspace) operator(step StepSpec) (op.Operator, error) {
	var base *op.Operation
	if step.Use != "" {
		inst, err := w.Instruction(step.Use, false)
		if err != nil {
			return nil, err
		}
		base = inst
	} else {
		params := make([]param.Value, len(step.Params))
		for i, expr := range step.Params {
			v, err := param.Parse(expr, w.symbols)
			if err != nil {
				return nil, fmt.Errorf("params[%d]: %w", i, err)
			}
			params[i] = v
		}
		g, err := gates.New(step.Gate, len(step.Qubits), params)
		if err != nil {
			return nil, err
		}
		base = g
	}
	if !step.Inverse {
		return base, nil
	}
	return w.inverter.Inverse(base, transform.Annotated())
}

// number parses a parameter expression that must evaluate to a float.
func (w *Workspace) number(expr string) (float64, error) {
	v, err := param.Parse(expr, w.symbols)
	if err != nil {
		return 0, err
	}
	return param.Eval(v)
}

// Program returns the named program.
func (w *Workspace) Program(name string) (*program.Program, bool) {
	p, ok := w.programs[name]
	return p, ok
}

// Instruction converts the named program to an operation. With gate set
// it uses ToGate, and the result is not cached.
func (w *Workspace) Instruction(name string, gate bool) (*op.Operation, error) {
	p, ok := w.programs[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q", name)
	}
	var opts []program.ConvertOption
	if label := w.specs[name].Label; label != "" {
		opts = append(opts, program.WithLabel(label))
	}
	if gate {
		return p.ToGate(opts...)
	}
	if inst, ok := w.instructions[name]; ok {
		return inst, nil
	}
	inst, err := p.ToInstruction(opts...)
	if err != nil {
		return nil, err
	}
	w.instructions[name] = inst
	return inst, nil
}

// Operation returns the operation a check is about: the instruction of the
// named program, or the operation at c.Step when one is set.
func (w *Workspace) Operation(name string, c Check) (*op.Operation, error) {
	if c.Step == nil {
		return w.Instruction(name, c.Gate)
	}
	p, ok := w.programs[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q", name)
	}
	steps := p.Steps()
	if *c.Step >= len(steps) {
		return nil, fmt.Errorf("program %s has %d steps, no step %d", name, len(steps), *c.Step)
	}
	return steps[*c.Step].Op, nil
}

// Names returns the program names in declaration order.
func (w *Workspace) Names() []string {
	names := make([]string, len(w.scenario.Programs))
	for i, spec := range w.scenario.Programs {
		names[i] = spec.Name
	}
	return names
}
