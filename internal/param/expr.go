package param

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Symbol is a named free variable. Identity is the ID, not the name.
type Symbol struct {
	Name string
	ID   uuid.UUID
}

// NewSymbol creates a fresh symbol. Two calls with the same name return
// different symbols.
func NewSymbol(name string) Symbol {
	return Symbol{Name: name, ID: uuid.New()}
}

// Expr returns the expression consisting of the symbol alone.
func (s Symbol) Expr() *Expr {
	return &Expr{kind: kindSymbol, sym: s}
}

// NewParameter is shorthand for NewSymbol(name).Expr().
func NewParameter(name string) *Expr {
	return NewSymbol(name).Expr()
}

type exprKind uint8

const (
	kindSymbol exprKind = iota
	kindConst
	kindAdd
	kindMul
	kindDiv
)

// Expr is an immutable symbolic expression. Build expressions with
// Symbol.Expr and the package arithmetic helpers; the zero Expr is not valid.
type Expr struct {
	kind exprKind
	sym  Symbol
	c    float64
	args [2]*Expr
}

func (*Expr) paramValue() {}

// String returns the expression in infix form.
func (e *Expr) String() string {
	return formatExpr(e)
}

func constExpr(c float64) *Expr {
	return &Expr{kind: kindConst, c: c}
}

func binExpr(kind exprKind, a, b *Expr) *Expr {
	return &Expr{kind: kind, args: [2]*Expr{a, b}}
}

// equal compares structurally. Operands of add and mul compare as unordered pairs.
func (e *Expr) equal(o *Expr) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil || e.kind != o.kind {
		return false
	}
	switch e.kind {
	case kindSymbol:
		return e.sym.ID == o.sym.ID
	case kindConst:
		return e.c == o.c
	case kindAdd, kindMul:
		return (e.args[0].equal(o.args[0]) && e.args[1].equal(o.args[1])) ||
			(e.args[0].equal(o.args[1]) && e.args[1].equal(o.args[0]))
	case kindDiv:
		return e.args[0].equal(o.args[0]) && e.args[1].equal(o.args[1])
	}
	return false
}

func (e *Expr) collect(seen map[uuid.UUID]Symbol) {
	switch e.kind {
	case kindSymbol:
		seen[e.sym.ID] = e.sym
	case kindAdd, kindMul, kindDiv:
		e.args[0].collect(seen)
		e.args[1].collect(seen)
	}
}

// Symbols returns the free symbols of v sorted by name, then by ID.
func Symbols(v Value) []Symbol {
	e, ok := v.(*Expr)
	if !ok {
		return []Symbol{}
	}
	seen := make(map[uuid.UUID]Symbol)
	e.collect(seen)
	return sortSymbols(seen)
}

// SymbolsOf returns the union of free symbols across vs, sorted by name.
func SymbolsOf(vs []Value) []Symbol {
	seen := make(map[uuid.UUID]Symbol)
	for _, v := range vs {
		if e, ok := v.(*Expr); ok {
			e.collect(seen)
		}
	}
	return sortSymbols(seen)
}

func sortSymbols(seen map[uuid.UUID]Symbol) []Symbol {
	out := make([]Symbol, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Symbol) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func toExpr(v Value) (*Expr, error) {
	switch n := v.(type) {
	case Float:
		return constExpr(float64(n)), nil
	case Int:
		return constExpr(float64(n)), nil
	case *Expr:
		return n, nil
	default:
		return nil, fmt.Errorf("%T cannot appear in an expression", v)
	}
}

// Neg returns -v.
func Neg(v Value) Value {
	if n, ok := v.(Int); ok {
		return -n
	}
	return Scale(v, -1)
}

// Scale returns v multiplied by the constant f.
func Scale(v Value, f float64) Value {
	switch n := v.(type) {
	case Float:
		return Float(float64(n) * f)
	case Int:
		return Float(float64(n) * f)
	case Matrix:
		out := Matrix{Rows: n.Rows, Cols: n.Cols, Data: make([]complex128, len(n.Data))}
		for i, x := range n.Data {
			out.Data[i] = x * complex(f, 0)
		}
		return out
	case *Expr:
		return scaleExpr(n, f)
	}
	return v
}

func scaleExpr(e *Expr, f float64) Value {
	switch {
	case f == 1:
		return e
	case f == 0:
		return Float(0)
	}
	if e.kind == kindMul && e.args[0].kind == kindConst {
		k := e.args[0].c * f
		if k == 1 {
			return e.args[1]
		}
		return binExpr(kindMul, constExpr(k), e.args[1])
	}
	return binExpr(kindMul, constExpr(f), e)
}

// Add returns a+b. Matrices add elementwise and must share a shape.
func Add(a, b Value) (Value, error) {
	am, aIsMatrix := a.(Matrix)
	bm, bIsMatrix := b.(Matrix)
	if aIsMatrix || bIsMatrix {
		if !aIsMatrix || !bIsMatrix || am.Rows != bm.Rows || am.Cols != bm.Cols {
			return nil, fmt.Errorf("cannot add %s and %s", Format(a), Format(b))
		}
		out := Matrix{Rows: am.Rows, Cols: am.Cols, Data: make([]complex128, len(am.Data))}
		for i := range am.Data {
			out.Data[i] = am.Data[i] + bm.Data[i]
		}
		return out, nil
	}
	return addScalar(a, b)
}

func addScalar(a, b Value) (Value, error) {
	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			return ai + bi, nil
		}
	}
	x, xok := real64(a)
	y, yok := real64(b)
	switch {
	case xok && yok:
		return Float(x + y), nil
	case xok && x == 0:
		return b, nil
	case yok && y == 0:
		return a, nil
	}
	ea, err := toExpr(a)
	if err != nil {
		return nil, err
	}
	eb, err := toExpr(b)
	if err != nil {
		return nil, err
	}
	return binExpr(kindAdd, ea, eb), nil
}

// Sub returns a-b.
func Sub(a, b Value) (Value, error) {
	return Add(a, Neg(b))
}

// Mul returns a*b. A matrix may only be multiplied by a concrete scalar.
func Mul(a, b Value) (Value, error) {
	if ai, ok := a.(Int); ok {
		if bi, ok := b.(Int); ok {
			return ai * bi, nil
		}
	}
	if x, ok := real64(a); ok {
		return Scale(b, x), nil
	}
	if y, ok := real64(b); ok {
		return Scale(a, y), nil
	}
	ea, err := toExpr(a)
	if err != nil {
		return nil, err
	}
	eb, err := toExpr(b)
	if err != nil {
		return nil, err
	}
	return binExpr(kindMul, ea, eb), nil
}

// Div returns a/b. Division by a concrete zero fails.
func Div(a, b Value) (Value, error) {
	if y, ok := real64(b); ok {
		if y == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if x, ok := real64(a); ok {
			return Float(x / y), nil
		}
		return Scale(a, 1/y), nil
	}
	ea, err := toExpr(a)
	if err != nil {
		return nil, err
	}
	eb, err := toExpr(b)
	if err != nil {
		return nil, err
	}
	return binExpr(kindDiv, ea, eb), nil
}

// Bind substitutes values for symbols. Symbols missing from values stay free,
// so the result is concrete only when every symbol of v is bound.
func Bind(v Value, values map[Symbol]float64) (Value, error) {
	e, ok := v.(*Expr)
	if !ok {
		return Clone(v), nil
	}
	return bindExpr(e, values)
}

func bindExpr(e *Expr, values map[Symbol]float64) (Value, error) {
	switch e.kind {
	case kindSymbol:
		if x, ok := values[e.sym]; ok {
			return Float(x), nil
		}
		return e, nil
	case kindConst:
		return Float(e.c), nil
	}
	a, err := bindExpr(e.args[0], values)
	if err != nil {
		return nil, err
	}
	b, err := bindExpr(e.args[1], values)
	if err != nil {
		return nil, err
	}
	switch e.kind {
	case kindAdd:
		return Add(a, b)
	case kindMul:
		return Mul(a, b)
	default:
		return Div(a, b)
	}
}

// Eval returns the numeric value of v when it is concrete.
func Eval(v Value) (float64, error) {
	if x, ok := real64(v); ok {
		return x, nil
	}
	if e, ok := v.(*Expr); ok {
		return math.NaN(), fmt.Errorf("expression %s has unbound symbols", formatExpr(e))
	}
	return math.NaN(), fmt.Errorf("%T has no scalar value", v)
}
