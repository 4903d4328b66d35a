package param

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Encode converts v into a JSON-compatible tree for canonical serialization.
//
//	Float:  {"type": "float", "value": 0.5}
//	Int:    {"type": "int", "value": 2}
//	Matrix: {"type": "matrix", "rows": 2, "cols": 2, "re": [...], "im": [...]}
//	*Expr:  {"type": "expr", "expr": {...}}
func Encode(v Value) map[string]any {
	return encode(v, nil)
}

// EncodeList encodes every value of vs.
func EncodeList(vs []Value) []any {
	return EncodeListRefs(vs, nil)
}

// SymbolRefs numbers symbols in order of first appearance. Encoding through
// a SymbolRefs writes {"symbol": name, "ref": n} in place of the symbol id,
// so structurally identical trees built in different processes encode the
// same. Share one SymbolRefs across everything that makes up one document.
type SymbolRefs struct {
	seen map[uuid.UUID]int64
}

// NewSymbolRefs returns an empty numbering.
func NewSymbolRefs() *SymbolRefs {
	return &SymbolRefs{seen: make(map[uuid.UUID]int64)}
}

func (r *SymbolRefs) ref(s Symbol) int64 {
	n, ok := r.seen[s.ID]
	if !ok {
		n = int64(len(r.seen))
		r.seen[s.ID] = n
	}
	return n
}

// EncodeListRefs encodes vs, numbering symbols through refs. A nil refs
// keeps symbol ids, as EncodeList does.
func EncodeListRefs(vs []Value, refs *SymbolRefs) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = encode(v, refs)
	}
	return out
}

func encode(v Value, refs *SymbolRefs) map[string]any {
	switch n := v.(type) {
	case Float:
		return map[string]any{"type": "float", "value": float64(n)}
	case Int:
		return map[string]any{"type": "int", "value": int64(n)}
	case Matrix:
		re := make([]any, len(n.Data))
		im := make([]any, len(n.Data))
		for i, c := range n.Data {
			re[i] = real(c)
			im[i] = imag(c)
		}
		return map[string]any{
			"type": "matrix",
			"rows": int64(n.Rows),
			"cols": int64(n.Cols),
			"re":   re,
			"im":   im,
		}
	case *Expr:
		return map[string]any{"type": "expr", "expr": encodeExpr(n, refs)}
	}
	return map[string]any{"type": "unknown"}
}

func encodeExpr(e *Expr, refs *SymbolRefs) map[string]any {
	switch e.kind {
	case kindSymbol:
		if refs != nil {
			return map[string]any{"symbol": e.sym.Name, "ref": refs.ref(e.sym)}
		}
		return map[string]any{"symbol": e.sym.Name, "id": e.sym.ID.String()}
	case kindConst:
		return map[string]any{"const": e.c}
	}
	ops := map[exprKind]string{kindAdd: "add", kindMul: "mul", kindDiv: "div"}
	return map[string]any{
		"op":   ops[e.kind],
		"args": []any{encodeExpr(e.args[0], refs), encodeExpr(e.args[1], refs)},
	}
}

// Decode is the inverse of Encode. It accepts trees produced by
// encoding/json (float64 or json.Number numbers) as well as Encode output.
func Decode(doc any) (Value, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("param: expected object, got %T", doc)
	}
	switch m["type"] {
	case "float":
		x, err := number(m["value"])
		if err != nil {
			return nil, fmt.Errorf("param float: %w", err)
		}
		return Float(x), nil
	case "int":
		x, err := number(m["value"])
		if err != nil {
			return nil, fmt.Errorf("param int: %w", err)
		}
		return Int(int64(x)), nil
	case "matrix":
		return decodeMatrix(m)
	case "expr":
		e, err := decodeExpr(m["expr"])
		if err != nil {
			return nil, fmt.Errorf("param expr: %w", err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("param: unknown type %v", m["type"])
}

// DecodeList decodes a list produced by EncodeList.
func DecodeList(doc any) ([]Value, error) {
	items, ok := doc.([]any)
	if !ok {
		if doc == nil {
			return []Value{}, nil
		}
		return nil, fmt.Errorf("params: expected array, got %T", doc)
	}
	out := make([]Value, len(items))
	for i, item := range items {
		v, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("params[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func decodeMatrix(m map[string]any) (Value, error) {
	rows, err := number(m["rows"])
	if err != nil {
		return nil, fmt.Errorf("param matrix rows: %w", err)
	}
	cols, err := number(m["cols"])
	if err != nil {
		return nil, fmt.Errorf("param matrix cols: %w", err)
	}
	re, _ := m["re"].([]any)
	im, _ := m["im"].([]any)
	n := int(rows) * int(cols)
	if len(re) != n || len(im) != n {
		return nil, fmt.Errorf("param matrix: want %d elements, got re=%d im=%d", n, len(re), len(im))
	}
	data := make([]complex128, n)
	for i := range data {
		r, err := number(re[i])
		if err != nil {
			return nil, fmt.Errorf("param matrix re[%d]: %w", i, err)
		}
		c, err := number(im[i])
		if err != nil {
			return nil, fmt.Errorf("param matrix im[%d]: %w", i, err)
		}
		data[i] = complex(r, c)
	}
	return Matrix{Rows: int(rows), Cols: int(cols), Data: data}, nil
}

func decodeExpr(doc any) (*Expr, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", doc)
	}
	if name, ok := m["symbol"].(string); ok {
		idStr, _ := m["id"].(string)
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", name, err)
		}
		return Symbol{Name: name, ID: id}.Expr(), nil
	}
	if c, ok := m["const"]; ok {
		x, err := number(c)
		if err != nil {
			return nil, err
		}
		return constExpr(x), nil
	}
	args, ok := m["args"].([]any)
	if !ok || len(args) != 2 {
		return nil, fmt.Errorf("expected two args")
	}
	a, err := decodeExpr(args[0])
	if err != nil {
		return nil, err
	}
	b, err := decodeExpr(args[1])
	if err != nil {
		return nil, err
	}
	switch m["op"] {
	case "add":
		return binExpr(kindAdd, a, b), nil
	case "mul":
		return binExpr(kindMul, a, b), nil
	case "div":
		return binExpr(kindDiv, a, b), nil
	}
	return nil, fmt.Errorf("unknown op %v", m["op"])
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
