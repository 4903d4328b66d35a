package param

import (
	"math"
	"strconv"
	"strings"
)

// piForms are the multiples of pi printed symbolically.
var piForms = []struct {
	value   float64
	display string
}{
	{2 * math.Pi, "2*pi"},
	{math.Pi, "pi"},
	{math.Pi / 2, "pi/2"},
	{math.Pi / 3, "pi/3"},
	{math.Pi / 4, "pi/4"},
	{math.Pi / 6, "pi/6"},
	{math.Pi / 8, "pi/8"},
	{3 * math.Pi / 4, "3*pi/4"},
	{3 * math.Pi / 2, "3*pi/2"},
	{2 * math.Pi / 3, "2*pi/3"},
}

// FormatFloat formats x, using pi notation for common fractions of pi.
func FormatFloat(x float64) string {
	for _, pf := range piForms {
		if math.Abs(x-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(x+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Format renders a parameter value for display.
func Format(v Value) string {
	switch n := v.(type) {
	case Float:
		return FormatFloat(float64(n))
	case Int:
		return strconv.FormatInt(int64(n), 10)
	case Matrix:
		return formatMatrix(n)
	case *Expr:
		return formatExpr(n)
	case nil:
		return "<nil>"
	}
	return "?"
}

// FormatList renders params as a comma separated list.
func FormatList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = Format(v)
	}
	return strings.Join(parts, ", ")
}

func formatMatrix(m Matrix) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(formatComplex(m.At(i, j)))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

func formatComplex(c complex128) string {
	if imag(c) == 0 {
		return strconv.FormatFloat(real(c), 'g', -1, 64)
	}
	return strconv.FormatComplex(c, 'g', -1, 128)
}

func formatExpr(e *Expr) string {
	switch e.kind {
	case kindSymbol:
		return e.sym.Name
	case kindConst:
		return FormatFloat(e.c)
	case kindAdd:
		rhs := e.args[1]
		if rhs.kind == kindMul && rhs.args[0].kind == kindConst && rhs.args[0].c < 0 {
			return formatExpr(e.args[0]) + " - " + formatScaled(-rhs.args[0].c, rhs.args[1])
		}
		if rhs.kind == kindConst && rhs.c < 0 {
			return formatExpr(e.args[0]) + " - " + FormatFloat(-rhs.c)
		}
		return formatExpr(e.args[0]) + " + " + formatExpr(rhs)
	case kindMul:
		if e.args[0].kind == kindConst {
			return formatScaled(e.args[0].c, e.args[1])
		}
		return wrap(e.args[0], kindAdd) + "*" + wrap(e.args[1], kindAdd)
	case kindDiv:
		return wrap(e.args[0], kindAdd, kindMul, kindDiv) + "/" + wrap(e.args[1], kindAdd, kindMul, kindDiv)
	}
	return "?"
}

func formatScaled(k float64, e *Expr) string {
	switch k {
	case 1:
		return wrap(e, kindAdd)
	case -1:
		return "-" + wrap(e, kindAdd)
	}
	return FormatFloat(k) + "*" + wrap(e, kindAdd)
}

func wrap(e *Expr, kinds ...exprKind) string {
	for _, k := range kinds {
		if e.kind == k {
			return "(" + formatExpr(e) + ")"
		}
	}
	return formatExpr(e)
}
