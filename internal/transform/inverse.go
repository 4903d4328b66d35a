package transform

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/gatekit/internal/op"
)

// Inverter computes inverses of operations.
type Inverter struct {
	registry *Registry
	logger   *slog.Logger
}

// InverterOption configures an Inverter.
type InverterOption func(*Inverter)

// WithRegistry sets the closed-form inverse registry.
// Default: DefaultRegistry().
func WithRegistry(r *Registry) InverterOption {
	return func(inv *Inverter) {
		inv.registry = r
	}
}

// WithLogger sets the logger used for debug tracing.
// Default: slog.Default().
func WithLogger(l *slog.Logger) InverterOption {
	return func(inv *Inverter) {
		inv.logger = l
	}
}

// NewInverter creates an Inverter.
func NewInverter(opts ...InverterOption) *Inverter {
	inv := &Inverter{}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.registry == nil {
		inv.registry = DefaultRegistry()
	}
	return inv
}

func (inv *Inverter) log() *slog.Logger {
	if inv.logger != nil {
		return inv.logger
	}
	return slog.Default()
}

type inverseConfig struct {
	annotated bool
}

// InverseOption configures a single Inverse call.
type InverseOption func(*inverseConfig)

// Annotated requests the deferred form: operations without a closed-form
// inverse are wrapped in an AnnotatedOperation instead of being expanded.
func Annotated() InverseOption {
	return func(c *inverseConfig) {
		c.annotated = true
	}
}

// Inverse returns the inverse of o. Without Annotated() the result is always
// an *op.Operation; with it the result may be an *AnnotatedOperation.
// Inverting a deferred inverse in annotated mode unwraps it to a copy of
// its base.
func (inv *Inverter) Inverse(o op.Operator, opts ...InverseOption) (op.Operator, error) {
	var cfg inverseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if a, ok := o.(*AnnotatedOperation); ok {
		if cfg.annotated {
			toggled := a.Inverse()
			if len(toggled.modifiers) == 0 {
				return toggled.base.Copy(), nil
			}
			return toggled, nil
		}
		resolved, err := a.Resolve()
		if err != nil {
			return nil, err
		}
		return inv.eager(resolved)
	}

	base, err := o.Resolve()
	if err != nil {
		return nil, err
	}
	if cfg.annotated {
		closed, ok, err := inv.closedForm(base)
		if err != nil {
			return nil, err
		}
		if ok {
			return closed, nil
		}
		inv.log().Debug("deferring inverse", "operation", base.Name())
		return NewAnnotated(base, inv, InverseModifier{}), nil
	}
	return inv.eager(base)
}

// eager keeps a failed inversion from surfacing as a typed nil Operator.
func (inv *Inverter) eager(o *op.Operation) (op.Operator, error) {
	result, err := inv.InverseOperation(o)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// closedForm returns the registered inverse of a builtin operation.
func (inv *Inverter) closedForm(o *op.Operation) (*op.Operation, bool, error) {
	if !o.IsBuiltin() {
		return nil, false, nil
	}
	fn, ok := inv.registry.Lookup(o.Name())
	if !ok {
		return nil, false, nil
	}
	result, err := fn(o)
	if err != nil {
		return nil, false, fmt.Errorf("closed-form inverse of %s: %w", o.Name(), err)
	}
	inv.log().Debug("closed-form inverse", "operation", o.Name(), "inverse", result.Name())
	return result, true, nil
}

// frame is one operation whose definition is being inverted.
type frame struct {
	src      *op.Operation
	def      *op.Definition
	next     int
	inverted []*op.Operation
}

// InverseOperation eagerly inverts o. It either returns a complete inverse
// or an error; no partial result is produced.
func (inv *Inverter) InverseOperation(o *op.Operation) (*op.Operation, error) {
	closed, ok, err := inv.closedForm(o)
	if err != nil {
		return nil, err
	}
	if ok {
		return closed, nil
	}
	if o.IsOpaque() {
		return nil, op.NewOpaqueError(o.Name(), "invert")
	}

	memo := make(map[*op.Operation]*op.Operation)
	active := make(map[*op.Operation]bool)
	var stack []*frame

	push := func(src *op.Operation) error {
		def, err := src.Definition()
		if err != nil {
			return err
		}
		if def == nil {
			return op.NewOpaqueError(src.Name(), "invert")
		}
		active[src] = true
		stack = append(stack, &frame{
			src:      src,
			def:      def,
			inverted: make([]*op.Operation, len(def.Steps)),
		})
		return nil
	}

	if err := push(o); err != nil {
		return nil, err
	}

	for {
		top := stack[len(stack)-1]

		if top.next < len(top.def.Steps) {
			step := top.def.Steps[top.next]
			if err := checkInvertible(top.src, top.next, step); err != nil {
				return nil, err
			}
			child := step.Op

			if cached, ok := memo[child]; ok {
				inv.log().Debug("reusing inverse", "operation", child.Name())
				top.inverted[top.next] = cached
				top.next++
				continue
			}

			closed, ok, err := inv.closedForm(child)
			if err != nil {
				return nil, err
			}
			if ok {
				memo[child] = closed
				top.inverted[top.next] = closed
				top.next++
				continue
			}

			if child.IsOpaque() {
				return nil, fmt.Errorf("invert %s step %d: %w", top.src.Name(), top.next, op.NewOpaqueError(child.Name(), "invert"))
			}
			if active[child] {
				return nil, fmt.Errorf("invert %s: definition of %s refers to itself", o.Name(), child.Name())
			}
			if err := push(child); err != nil {
				return nil, fmt.Errorf("invert %s step %d: %w", top.src.Name(), top.next, err)
			}
			continue
		}

		result, err := finishFrame(top)
		if err != nil {
			return nil, err
		}
		memo[top.src] = result
		delete(active, top.src)
		stack = stack[:len(stack)-1]

		if len(stack) == 0 {
			return result, nil
		}
		parent := stack[len(stack)-1]
		parent.inverted[parent.next] = result
		parent.next++
	}
}

// checkInvertible rejects steps that have no unitary inverse.
func checkInvertible(parent *op.Operation, index int, step op.Step) error {
	if step.Condition != nil {
		return op.NewNonInvertibleError(parent.Name(),
			fmt.Sprintf("cannot invert operation containing a conditional step (step %d, %s)", index, step.Op.Name()))
	}
	switch step.Op.Kind() {
	case op.KindMeasure, op.KindReset:
		return op.NewNonInvertibleError(parent.Name(),
			fmt.Sprintf("cannot invert operation containing %s (step %d)", step.Op.Kind(), index))
	}
	return nil
}

func finishFrame(f *frame) (*op.Operation, error) {
	def := op.NewDefinition(f.def.NumQubits, f.def.NumClbits)
	def.GlobalPhase = -f.def.GlobalPhase
	for i := len(f.def.Steps) - 1; i >= 0; i-- {
		s := f.def.Steps[i]
		if err := def.Append(f.inverted[i], slices.Clone(s.Qubits), slices.Clone(s.Clbits)); err != nil {
			return nil, fmt.Errorf("invert %s step %d: %w", f.src.Name(), i, err)
		}
	}
	return f.src.Derive(InverseName(f.src.Name()), f.src.Params(), def)
}

var defaultInverter = NewInverter()

// Inverse inverts o with the default registry. When annotated is true,
// operations without a closed-form inverse are wrapped rather than expanded.
func Inverse(o op.Operator, annotated bool) (op.Operator, error) {
	if annotated {
		return defaultInverter.Inverse(o, Annotated())
	}
	return defaultInverter.Inverse(o)
}
