package transform

import (
	"fmt"
	"strings"

	"github.com/roach88/gatekit/internal/op"
)

// Modifier is a pending transformation recorded on an AnnotatedOperation.
type Modifier interface {
	modifier() // Sealed
	String() string
}

// InverseModifier marks a pending inversion.
type InverseModifier struct{}

func (InverseModifier) modifier()      {}
func (InverseModifier) String() string { return "inverse" }

// AnnotatedOperation pairs a base operation with pending modifiers. It is
// distinct from op.Operation and is resolved only when something needs the
// concrete operation, such as Program.Append.
type AnnotatedOperation struct {
	base      *op.Operation
	modifiers []Modifier
	inverter  *Inverter
}

// NewAnnotated wraps base. A nil inverter uses the default registry.
func NewAnnotated(base *op.Operation, inverter *Inverter, modifiers ...Modifier) *AnnotatedOperation {
	if inverter == nil {
		inverter = defaultInverter
	}
	return &AnnotatedOperation{
		base:      base,
		modifiers: append([]Modifier(nil), modifiers...),
		inverter:  inverter,
	}
}

// Name is always "annotated".
func (a *AnnotatedOperation) Name() string   { return "annotated" }
func (a *AnnotatedOperation) NumQubits() int { return a.base.NumQubits() }
func (a *AnnotatedOperation) NumClbits() int { return a.base.NumClbits() }

// Base returns the wrapped operation.
func (a *AnnotatedOperation) Base() *op.Operation { return a.base }

// Modifiers returns a copy of the pending modifiers.
func (a *AnnotatedOperation) Modifiers() []Modifier {
	return append([]Modifier(nil), a.modifiers...)
}

// Resolve applies the modifiers in order and returns the concrete operation.
// The base is never mutated and the result is not cached.
func (a *AnnotatedOperation) Resolve() (*op.Operation, error) {
	cur := a.base.Copy()
	for _, m := range a.modifiers {
		switch m.(type) {
		case InverseModifier:
			next, err := a.inverter.InverseOperation(cur)
			if err != nil {
				return nil, fmt.Errorf("resolve annotated %s: %w", a.base.Name(), err)
			}
			cur = next
		default:
			return nil, fmt.Errorf("resolve annotated %s: unsupported modifier %s", a.base.Name(), m)
		}
	}
	return cur, nil
}

// Inverse toggles a trailing inverse modifier without expanding anything.
func (a *AnnotatedOperation) Inverse() *AnnotatedOperation {
	mods := a.Modifiers()
	if n := len(mods); n > 0 {
		if _, ok := mods[n-1].(InverseModifier); ok {
			return &AnnotatedOperation{base: a.base, modifiers: mods[:n-1], inverter: a.inverter}
		}
	}
	return &AnnotatedOperation{base: a.base, modifiers: append(mods, InverseModifier{}), inverter: a.inverter}
}

// Equal compares base operations and modifier lists.
func (a *AnnotatedOperation) Equal(other *AnnotatedOperation) bool {
	if a == nil || other == nil {
		return a == other
	}
	if !a.base.Equal(other.base) || len(a.modifiers) != len(other.modifiers) {
		return false
	}
	for i := range a.modifiers {
		if a.modifiers[i] != other.modifiers[i] {
			return false
		}
	}
	return true
}

// String renders the wrapper and its modifiers.
func (a *AnnotatedOperation) String() string {
	names := make([]string, len(a.modifiers))
	for i, m := range a.modifiers {
		names[i] = m.String()
	}
	return fmt.Sprintf("AnnotatedOperation(base=%s, modifiers=[%s])", a.base, strings.Join(names, ", "))
}
