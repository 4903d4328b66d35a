package op

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/gatekit/internal/param"
)

// Kind classifies operations. It does not take part in equality.
type Kind uint8

const (
	KindInstruction Kind = iota
	KindGate
	KindMeasure
	KindReset
	KindBarrier
)

var kindNames = map[Kind]string{
	KindInstruction: "instruction",
	KindGate:        "gate",
	KindMeasure:     "measure",
	KindReset:       "reset",
	KindBarrier:     "barrier",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

// Operator is anything that can be placed into a program or definition.
// Resolve produces the concrete Operation to record.
type Operator interface {
	Name() string
	NumQubits() int
	NumClbits() int
	Resolve() (*Operation, error)
}

// Definer computes the definition of o on first access.
type Definer func(o *Operation) (*Definition, error)

type lazyDefinition struct {
	once sync.Once
	def  *Definition
	err  error
}

// Operation is a named operation over a fixed number of qubits and clbits.
type Operation struct {
	name      string
	numQubits int
	numClbits int
	params    []param.Value
	label     *string
	kind      Kind
	builtin   bool

	definition *Definition
	definer    Definer
	lazy       *lazyDefinition
}

// Option configures an Operation at construction.
type Option func(*Operation) error

// WithLabel sets the label. v must be a string or nil.
func WithLabel(v any) Option {
	return func(o *Operation) error {
		return o.SetLabel(v)
	}
}

// WithKind sets the operation kind. The default is KindInstruction.
func WithKind(k Kind) Option {
	return func(o *Operation) error {
		o.kind = k
		return nil
	}
}

// Builtin marks the operation as created by the standard gate library.
// Only builtin operations are eligible for closed-form inverses.
func Builtin() Option {
	return func(o *Operation) error {
		o.builtin = true
		return nil
	}
}

// WithDefinition attaches a definition. Its shape must match the operation.
func WithDefinition(def *Definition) Option {
	return func(o *Operation) error {
		if def == nil {
			return nil
		}
		if def.NumQubits != o.numQubits || def.NumClbits != o.numClbits {
			return NewShapeError(o.name, o.numQubits, o.numClbits, def.NumQubits, def.NumClbits)
		}
		o.definition = def
		return nil
	}
}

// WithDefiner attaches a function that computes the definition on first access.
func WithDefiner(fn Definer) Option {
	return func(o *Operation) error {
		o.definer = fn
		return nil
	}
}

// New creates an Operation. The params slice is copied.
func New(name string, numQubits, numClbits int, params []param.Value, opts ...Option) (*Operation, error) {
	if name == "" {
		return nil, fmt.Errorf("operation name must not be empty")
	}
	if numQubits < 0 || numClbits < 0 {
		return nil, NewShapeError(name, 0, 0, numQubits, numClbits)
	}
	for i, p := range params {
		if p == nil {
			return nil, fmt.Errorf("operation %s: param %d is nil", name, i)
		}
	}
	o := &Operation{
		name:      name,
		numQubits: numQubits,
		numClbits: numClbits,
		params:    param.CloneSlice(params),
		lazy:      &lazyDefinition{},
	}
	if o.params == nil {
		o.params = []param.Value{}
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(name string, numQubits, numClbits int, params []param.Value, opts ...Option) *Operation {
	o, err := New(name, numQubits, numClbits, params, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

func (o *Operation) Name() string   { return o.name }
func (o *Operation) NumQubits() int { return o.numQubits }
func (o *Operation) NumClbits() int { return o.numClbits }
func (o *Operation) Kind() Kind     { return o.kind }

// IsBuiltin reports whether the operation came from the standard gate library.
func (o *Operation) IsBuiltin() bool { return o.builtin }

// Resolve returns o itself.
func (o *Operation) Resolve() (*Operation, error) { return o, nil }

// Params returns the parameter list. The slice is owned by o; use SetParam
// or SetParams to change it.
func (o *Operation) Params() []param.Value { return o.params }

// Param returns the i-th parameter.
func (o *Operation) Param(i int) param.Value { return o.params[i] }

// SetParams replaces the parameter list and discards a lazily computed
// definition. Builtin operations and operations with a Definer read their
// params by position, so for them the list must keep its length.
func (o *Operation) SetParams(params []param.Value) error {
	if (o.builtin || o.definer != nil) && len(params) != len(o.params) {
		return NewParamCountError(o.name, len(o.params), len(params))
	}
	for i, p := range params {
		if p == nil {
			return fmt.Errorf("operation %s: param %d is nil", o.name, i)
		}
	}
	o.params = param.CloneSlice(params)
	if o.params == nil {
		o.params = []param.Value{}
	}
	o.lazy = &lazyDefinition{}
	return nil
}

// SetParam replaces the i-th parameter and discards a lazily computed definition.
func (o *Operation) SetParam(i int, v param.Value) error {
	if i < 0 || i >= len(o.params) {
		return fmt.Errorf("operation %s: param index %d out of range [0,%d)", o.name, i, len(o.params))
	}
	if v == nil {
		return fmt.Errorf("operation %s: param %d is nil", o.name, i)
	}
	o.params[i] = v
	o.lazy = &lazyDefinition{}
	return nil
}

// Label returns the label and whether one is set.
func (o *Operation) Label() (string, bool) {
	if o.label == nil {
		return "", false
	}
	return *o.label, true
}

// SetLabel sets the label. Only strings and nil are accepted; nil clears it.
func (o *Operation) SetLabel(v any) error {
	switch l := v.(type) {
	case nil:
		o.label = nil
	case string:
		o.label = &l
	case *string:
		if l == nil {
			o.label = nil
			return nil
		}
		s := *l
		o.label = &s
	default:
		return NewLabelError(v)
	}
	return nil
}

// Definition returns the operation's definition, computing it on first access.
// Opaque operations return (nil, nil).
func (o *Operation) Definition() (*Definition, error) {
	if o.definition != nil {
		return o.definition, nil
	}
	if o.definer == nil {
		return nil, nil
	}
	lazy := o.lazy
	lazy.once.Do(func() {
		def, err := o.definer(o)
		if err != nil {
			lazy.err = fmt.Errorf("define %s: %w", o.name, err)
			return
		}
		if def != nil && (def.NumQubits != o.numQubits || def.NumClbits != o.numClbits) {
			lazy.err = NewShapeError(o.name, o.numQubits, o.numClbits, def.NumQubits, def.NumClbits)
			return
		}
		lazy.def = def
	})
	return lazy.def, lazy.err
}

// IsOpaque reports whether o has neither a definition nor a definer.
func (o *Operation) IsOpaque() bool {
	return o.definition == nil && o.definer == nil
}

// Copy returns an independent operation with cloned params. Definitions are
// immutable and shared; a lazy definition is recomputed on demand.
func (o *Operation) Copy() *Operation {
	c := &Operation{
		name:       o.name,
		numQubits:  o.numQubits,
		numClbits:  o.numClbits,
		params:     param.CloneSlice(o.params),
		kind:       o.kind,
		builtin:    o.builtin,
		definition: o.definition,
		definer:    o.definer,
		lazy:       &lazyDefinition{},
	}
	if o.label != nil {
		l := *o.label
		c.label = &l
	}
	return c
}

// Derive creates a new operation with o's kind and the given name, params
// and definition. The result is never builtin and carries no label.
func (o *Operation) Derive(name string, params []param.Value, def *Definition) (*Operation, error) {
	return New(name, o.numQubits, o.numClbits, params, WithKind(o.kind), WithDefinition(def))
}

// String renders o as Operation(name="h", num_qubits=1, num_clbits=0, params=[]).
func (o *Operation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operation(name=%q, num_qubits=%d, num_clbits=%d, params=[%s]",
		o.name, o.numQubits, o.numClbits, param.FormatList(o.params))
	if o.label != nil {
		fmt.Fprintf(&b, ", label=%q", *o.label)
	}
	b.WriteByte(')')
	return b.String()
}
