package program

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
	"github.com/roach88/gatekit/internal/transform"
)

// Program is an ordered recording of operation applications.
//
// A Program is not safe for concurrent mutation.
type Program struct {
	name     string
	qregs    []*Register
	cregs    []*Register
	body     *op.Definition
	logger   *slog.Logger
	inverter *transform.Inverter
}

// Option configures a Program at construction.
type Option func(*Program) error

// WithQubits adds an auto-named qubit register of size n.
func WithQubits(n int) Option {
	return func(p *Program) error {
		_, err := p.AddRegister(QubitKind, "", n)
		return err
	}
}

// WithClbits adds an auto-named clbit register of size n.
func WithClbits(n int) Option {
	return func(p *Program) error {
		_, err := p.AddRegister(ClbitKind, "", n)
		return err
	}
}

// WithRegister adds a named register.
func WithRegister(kind BitKind, name string, size int) Option {
	return func(p *Program) error {
		_, err := p.AddRegister(kind, name, size)
		return err
	}
}

// WithGlobalPhase sets the initial global phase.
func WithGlobalPhase(phase float64) Option {
	return func(p *Program) error {
		p.body.GlobalPhase = phase
		return nil
	}
}

// WithLogger sets the logger used for debug tracing.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) error {
		p.logger = l
		return nil
	}
}

// WithInverter sets the inverter used by Inverse.
// Default: an inverter over transform.DefaultRegistry().
func WithInverter(inv *transform.Inverter) Option {
	return func(p *Program) error {
		p.inverter = inv
		return nil
	}
}

// New creates an empty program.
func New(name string, opts ...Option) (*Program, error) {
	if name == "" {
		return nil, fmt.Errorf("program name must not be empty")
	}
	p := &Program{
		name: name,
		body: op.NewDefinition(0, 0),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.inverter == nil {
		p.inverter = transform.NewInverter(transform.WithLogger(p.logger))
	}
	return p, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(name string, opts ...Option) *Program {
	p, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// AddRegister appends a register of the given kind. An empty name is
// replaced by the next auto name ("q0", "q1", ... or "c0", ...).
func (p *Program) AddRegister(kind BitKind, name string, size int) (*Register, error) {
	if size < 0 {
		return nil, fmt.Errorf("register size must be non-negative, got %d", size)
	}
	if name == "" {
		name = autoName(kind)
	}
	regs := &p.qregs
	offset := &p.body.NumQubits
	if kind == ClbitKind {
		regs = &p.cregs
		offset = &p.body.NumClbits
	}
	for _, r := range *regs {
		if r.name == name {
			return nil, fmt.Errorf("duplicate %s register %q", kind, name)
		}
	}
	r := &Register{name: name, kind: kind, size: size, offset: *offset}
	*regs = append(*regs, r)
	*offset += size
	return r, nil
}

func (p *Program) Name() string         { return p.name }
func (p *Program) NumQubits() int       { return p.body.NumQubits }
func (p *Program) NumClbits() int       { return p.body.NumClbits }
func (p *Program) Len() int             { return p.body.Len() }
func (p *Program) GlobalPhase() float64 { return p.body.GlobalPhase }

// SetGlobalPhase replaces the accumulated global phase.
func (p *Program) SetGlobalPhase(x float64) { p.body.GlobalPhase = x }

// QubitRegisters returns the qubit registers in layout order.
func (p *Program) QubitRegisters() []*Register { return slices.Clone(p.qregs) }

// ClbitRegisters returns the clbit registers in layout order.
func (p *Program) ClbitRegisters() []*Register { return slices.Clone(p.cregs) }

// Steps returns a copy of the recorded steps.
func (p *Program) Steps() []op.Step { return slices.Clone(p.body.Steps) }

// Append records o applied to the given program bits. Deferred operators
// are resolved first, so the recording only holds concrete operations.
func (p *Program) Append(o op.Operator, qubits, clbits []int) (op.Step, error) {
	return p.append(o, qubits, clbits, nil)
}

// AppendIf records o conditioned on the clbits in cond equalling cond.Value.
func (p *Program) AppendIf(o op.Operator, qubits, clbits []int, cond op.Condition) (op.Step, error) {
	c := op.Condition{Clbits: slices.Clone(cond.Clbits), Value: cond.Value}
	return p.append(o, qubits, clbits, &c)
}

// AppendValue is Append for values of unknown type. Anything that is not an
// op.Operator fails with a NOT_OPERATION error.
func (p *Program) AppendValue(v any, qubits, clbits []int) (op.Step, error) {
	o, ok := v.(op.Operator)
	if !ok {
		hint := ""
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
			hint = "it is a constructor, not an operation; did you mean to call it?"
		}
		return op.Step{}, op.NewNotOperationError(v, hint)
	}
	return p.Append(o, qubits, clbits)
}

func (p *Program) append(o op.Operator, qubits, clbits []int, cond *op.Condition) (op.Step, error) {
	concrete, err := o.Resolve()
	if err != nil {
		return op.Step{}, fmt.Errorf("append %s: %w", o.Name(), err)
	}
	step := op.Step{Op: concrete, Qubits: qubits, Clbits: clbits, Condition: cond}
	if err := p.body.AppendStep(step); err != nil {
		return op.Step{}, err
	}
	return p.body.Steps[len(p.body.Steps)-1], nil
}

// MustAppend is like Append without clbits, panicking on error.
// Use only in tests or when inputs are known to be valid.
func (p *Program) MustAppend(o op.Operator, qubits ...int) *Program {
	if _, err := p.Append(o, qubits, nil); err != nil {
		panic(err)
	}
	return p
}

// Parameters returns the free symbols of every recorded param, sorted by name.
func (p *Program) Parameters() []param.Symbol {
	var all []param.Value
	for _, s := range p.body.Steps {
		all = append(all, s.Op.Params()...)
	}
	return param.SymbolsOf(all)
}

// AssignParameters returns a copy of p with symbols replaced by values.
// Unbound symbols stay free.
func (p *Program) AssignParameters(values map[param.Symbol]float64) (*Program, error) {
	out := p.emptyCopy(p.name)
	out.body.GlobalPhase = p.body.GlobalPhase
	for i, s := range p.body.Steps {
		bound, err := s.Op.Bind(values)
		if err != nil {
			return nil, fmt.Errorf("assign parameters step %d: %w", i, err)
		}
		s.Op = bound
		if err := out.body.AppendStep(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Equal compares register layout, global phase and recorded steps.
// Register names are ignored.
func (p *Program) Equal(other *Program) bool {
	if p == nil || other == nil {
		return p == other
	}
	if !sameSizes(p.qregs, other.qregs) || !sameSizes(p.cregs, other.cregs) {
		return false
	}
	return p.body.Equal(other.body)
}

func sameSizes(a, b []*Register) bool {
	return slices.EqualFunc(a, b, func(x, y *Register) bool { return x.size == y.size })
}

// emptyCopy returns a program with p's register layout and no steps.
func (p *Program) emptyCopy(name string) *Program {
	out := &Program{
		name:     name,
		qregs:    make([]*Register, len(p.qregs)),
		cregs:    make([]*Register, len(p.cregs)),
		body:     op.NewDefinition(p.body.NumQubits, p.body.NumClbits),
		logger:   p.logger,
		inverter: p.inverter,
	}
	for i, r := range p.qregs {
		c := *r
		out.qregs[i] = &c
	}
	for i, r := range p.cregs {
		c := *r
		out.cregs[i] = &c
	}
	return out
}
