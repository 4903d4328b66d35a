package op

import (
	"fmt"
	"math"
	"slices"
)

// PhaseTolerance is the absolute tolerance used when comparing global phases.
const PhaseTolerance = 1e-10

// Condition makes a step execute only when the listed clbits, read as a
// little-endian integer, equal Value.
type Condition struct {
	Clbits []int
	Value  uint64
}

// Equal reports whether both conditions test the same bits for the same value.
func (c *Condition) Equal(other *Condition) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Value == other.Value && slices.Equal(c.Clbits, other.Clbits)
}

// Step applies Op to the given local bit indices of the enclosing definition.
type Step struct {
	Op        *Operation
	Qubits    []int
	Clbits    []int
	Condition *Condition
}

// Definition is an ordered list of steps over a local bit space.
// Treat it as immutable once attached to an Operation.
type Definition struct {
	NumQubits   int
	NumClbits   int
	Steps       []Step
	GlobalPhase float64
}

// NewDefinition creates an empty definition over the given bit space.
func NewDefinition(numQubits, numClbits int) *Definition {
	return &Definition{NumQubits: numQubits, NumClbits: numClbits, Steps: []Step{}}
}

// Append adds an unconditional step.
func (d *Definition) Append(o *Operation, qubits, clbits []int) error {
	return d.AppendStep(Step{Op: o, Qubits: qubits, Clbits: clbits})
}

// MustAppend is like Append but panics on error.
// Use only for definitions built from known-valid constants.
func (d *Definition) MustAppend(o *Operation, qubits ...int) *Definition {
	if err := d.Append(o, qubits, nil); err != nil {
		panic(err)
	}
	return d
}

// AppendStep validates and adds a step. Bit lists must match the child's
// declared counts, lie inside the definition's bit space and not repeat.
func (d *Definition) AppendStep(s Step) error {
	if s.Op == nil {
		return NewNotOperationError(nil, "step has no operation")
	}
	if len(s.Qubits) != s.Op.numQubits || len(s.Clbits) != s.Op.numClbits {
		return NewShapeError(s.Op.name, s.Op.numQubits, s.Op.numClbits, len(s.Qubits), len(s.Clbits))
	}
	if err := checkBits(s.Op.name, "qubit", s.Qubits, d.NumQubits); err != nil {
		return err
	}
	if err := checkBits(s.Op.name, "clbit", s.Clbits, d.NumClbits); err != nil {
		return err
	}
	if s.Condition != nil {
		if err := checkBits(s.Op.name, "condition clbit", s.Condition.Clbits, d.NumClbits); err != nil {
			return err
		}
	}
	d.Steps = append(d.Steps, Step{
		Op:        s.Op,
		Qubits:    slices.Clone(s.Qubits),
		Clbits:    slices.Clone(s.Clbits),
		Condition: s.Condition,
	})
	return nil
}

func checkBits(name, what string, bits []int, size int) error {
	for i, b := range bits {
		if b < 0 || b >= size {
			return &Error{
				Code:      ErrCodeUnknownBit,
				Message:   fmt.Sprintf("%s %d out of range [0,%d)", what, b, size),
				Operation: name,
			}
		}
		if slices.Contains(bits[:i], b) {
			return &Error{
				Code:      ErrCodeShape,
				Message:   fmt.Sprintf("duplicate %s %d", what, b),
				Operation: name,
			}
		}
	}
	return nil
}

// Len returns the number of steps.
func (d *Definition) Len() int { return len(d.Steps) }

// Equal compares bit space, global phase (within PhaseTolerance) and steps.
// Steps compare by operation equality, bit lists and condition.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.NumQubits != other.NumQubits || d.NumClbits != other.NumClbits {
		return false
	}
	if math.Abs(d.GlobalPhase-other.GlobalPhase) > PhaseTolerance {
		return false
	}
	if len(d.Steps) != len(other.Steps) {
		return false
	}
	for i := range d.Steps {
		a, b := d.Steps[i], other.Steps[i]
		if !a.Op.Equal(b.Op) || !slices.Equal(a.Qubits, b.Qubits) || !slices.Equal(a.Clbits, b.Clbits) {
			return false
		}
		if !a.Condition.Equal(b.Condition) {
			return false
		}
	}
	return true
}
