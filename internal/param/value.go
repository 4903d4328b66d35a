package param

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"
)

// Value is a sealed interface for operation parameters.
// Only Float, Int, Matrix and *Expr implement it.
type Value interface {
	paramValue() // Sealed
}

// Float is a concrete real parameter.
type Float float64

func (Float) paramValue() {}

// Int is a concrete integer parameter.
type Int int64

func (Int) paramValue() {}

// Matrix is a dense row-major complex matrix parameter.
type Matrix struct {
	Rows int
	Cols int
	Data []complex128
}

func (Matrix) paramValue() {}

// NewMatrix builds a Matrix from rows. All rows must have the same length.
func NewMatrix(rows [][]complex128) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, fmt.Errorf("matrix must have at least one row")
	}
	cols := len(rows[0])
	if cols == 0 {
		return Matrix{}, fmt.Errorf("matrix must have at least one column")
	}
	data := make([]complex128, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return Matrix{}, fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return Matrix{Rows: len(rows), Cols: cols, Data: data}, nil
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) complex128 {
	return m.Data[i*m.Cols+j]
}

// Equal reports whether a and b are the same parameter value.
//
// Concrete numbers compare exactly by value regardless of Float/Int.
// Matrices compare by shape and element. Expressions compare structurally.
// A concrete value never equals a symbolic one.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Float, Int:
		x, ok := real64(av)
		if !ok {
			return false
		}
		y, ok := real64(b)
		return ok && x == y
	case Matrix:
		bm, ok := b.(Matrix)
		return ok && av.Rows == bm.Rows && av.Cols == bm.Cols && slices.Equal(av.Data, bm.Data)
	case *Expr:
		be, ok := b.(*Expr)
		return ok && av.equal(be)
	default:
		return false
	}
}

// EqualSlices reports whether a and b hold equal values in the same order.
func EqualSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// IsSymbolic reports whether v contains an unbound symbol.
func IsSymbolic(v Value) bool {
	_, ok := v.(*Expr)
	return ok
}

// Close reports whether two values are equal within tolerance.
//
// A symbolic value on either side is treated as equal. Concrete numbers
// satisfy |a-b| <= atol + rtol*|b|. Matrices must have the same shape and
// every element pair must satisfy the same bound.
func Close(a, b Value, rtol, atol float64) bool {
	if IsSymbolic(a) || IsSymbolic(b) {
		return true
	}
	am, aIsMatrix := a.(Matrix)
	bm, bIsMatrix := b.(Matrix)
	if aIsMatrix || bIsMatrix {
		if !aIsMatrix || !bIsMatrix || am.Rows != bm.Rows || am.Cols != bm.Cols {
			return false
		}
		for i := range am.Data {
			if cmplx.Abs(am.Data[i]-bm.Data[i]) > atol+rtol*cmplx.Abs(bm.Data[i]) {
				return false
			}
		}
		return true
	}
	x, ok := real64(a)
	if !ok {
		return false
	}
	y, ok := real64(b)
	if !ok {
		return false
	}
	return math.Abs(x-y) <= atol+rtol*math.Abs(y)
}

// Clone returns a deep copy of v. Expressions are immutable and shared.
func Clone(v Value) Value {
	if m, ok := v.(Matrix); ok {
		return Matrix{Rows: m.Rows, Cols: m.Cols, Data: slices.Clone(m.Data)}
	}
	return v
}

// CloneSlice deep-copies a parameter list.
func CloneSlice(vs []Value) []Value {
	if vs == nil {
		return nil
	}
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Clone(v)
	}
	return out
}

// AsFloat returns the concrete real value of v.
func AsFloat(v Value) (float64, bool) {
	return real64(v)
}

func real64(v Value) (float64, bool) {
	switch n := v.(type) {
	case Float:
		return float64(n), true
	case Int:
		return float64(n), true
	default:
		return 0, false
	}
}
