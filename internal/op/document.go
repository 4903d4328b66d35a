package op

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gatekit/internal/canon"
	"github.com/roach88/gatekit/internal/param"
)

// Document returns the canonical JSON tree for o, including its label and,
// for non-builtin operations, its definition. Builtin operations are stored
// by name and params only and are rebuilt by a Resolver on decode.
func (o *Operation) Document() (map[string]any, error) {
	return o.document(nil)
}

// Fingerprint returns a content hash over name, shape, kind, params and
// definition. Labels do not contribute, so relabelled copies share a
// fingerprint. Symbols contribute their name and order of first appearance,
// not their id, so rebuilding the same operation yields the same fingerprint.
func (o *Operation) Fingerprint() (string, error) {
	doc, err := o.document(param.NewSymbolRefs())
	if err != nil {
		return "", err
	}
	return canon.Hash(canon.DomainOperation, doc)
}

// document builds the tree. A nil refs gives the stored form with label and
// symbol ids; otherwise the fingerprint form.
func (o *Operation) document(refs *param.SymbolRefs) (map[string]any, error) {
	doc := map[string]any{
		"name":       o.name,
		"num_qubits": int64(o.numQubits),
		"num_clbits": int64(o.numClbits),
		"kind":       o.kind.String(),
		"builtin":    o.builtin,
		"params":     param.EncodeListRefs(o.params, refs),
	}
	if refs == nil && o.label != nil {
		doc["label"] = *o.label
	}
	if o.builtin {
		return doc, nil
	}
	def, err := o.Definition()
	if err != nil {
		return nil, err
	}
	if def == nil {
		return doc, nil
	}
	defDoc, err := def.document(refs)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", o.name, err)
	}
	doc["definition"] = defDoc
	return doc, nil
}

func (d *Definition) document(refs *param.SymbolRefs) (map[string]any, error) {
	steps := make([]any, len(d.Steps))
	for i, s := range d.Steps {
		child, err := s.Op.document(refs)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		step := map[string]any{
			"op":     child,
			"qubits": ints(s.Qubits),
			"clbits": ints(s.Clbits),
		}
		if s.Condition != nil {
			step["condition"] = map[string]any{
				"clbits": ints(s.Condition.Clbits),
				"value":  s.Condition.Value,
			}
		}
		steps[i] = step
	}
	return map[string]any{
		"num_qubits":   int64(d.NumQubits),
		"num_clbits":   int64(d.NumClbits),
		"global_phase": d.GlobalPhase,
		"steps":        steps,
	}, nil
}

func ints(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

// Resolver rebuilds a builtin operation from its name, qubit count and params.
type Resolver func(name string, numQubits int, params []param.Value) (*Operation, bool)

type decodeConfig struct {
	builtins Resolver
}

// DecodeOption configures DecodeDocument.
type DecodeOption func(*decodeConfig)

// WithBuiltins supplies the resolver used for documents flagged builtin.
// Without it builtin documents decode as opaque operations.
func WithBuiltins(r Resolver) DecodeOption {
	return func(c *decodeConfig) {
		c.builtins = r
	}
}

// DecodeDocument rebuilds an operation from a Document tree, such as the
// result of json.Unmarshal into map[string]any.
func DecodeDocument(doc map[string]any, opts ...DecodeOption) (*Operation, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return decodeOperation(doc, &cfg)
}

func decodeOperation(doc map[string]any, cfg *decodeConfig) (*Operation, error) {
	name, _ := doc["name"].(string)
	nq, err := intField(doc, "num_qubits")
	if err != nil {
		return nil, err
	}
	nc, err := intField(doc, "num_clbits")
	if err != nil {
		return nil, err
	}
	kindName, _ := doc["kind"].(string)
	kind, err := ParseKind(kindName)
	if err != nil {
		return nil, err
	}
	params, err := param.DecodeList(doc["params"])
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", name, err)
	}
	builtin, _ := doc["builtin"].(bool)

	var o *Operation
	if builtin && cfg.builtins != nil {
		if resolved, ok := cfg.builtins(name, nq, params); ok {
			if resolved.numQubits != nq || resolved.numClbits != nc {
				return nil, NewShapeError(name, nq, nc, resolved.numQubits, resolved.numClbits)
			}
			o = resolved
		}
	}
	if o == nil {
		opts := []Option{WithKind(kind)}
		if builtin {
			opts = append(opts, Builtin())
		}
		if defDoc, ok := doc["definition"].(map[string]any); ok {
			def, err := decodeDefinition(defDoc, cfg)
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", name, err)
			}
			opts = append(opts, WithDefinition(def))
		}
		if o, err = New(name, nq, nc, params, opts...); err != nil {
			return nil, err
		}
	}
	if label, ok := doc["label"].(string); ok {
		if err := o.SetLabel(label); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func decodeDefinition(doc map[string]any, cfg *decodeConfig) (*Definition, error) {
	nq, err := intField(doc, "num_qubits")
	if err != nil {
		return nil, fmt.Errorf("definition: %w", err)
	}
	nc, err := intField(doc, "num_clbits")
	if err != nil {
		return nil, fmt.Errorf("definition: %w", err)
	}
	def := NewDefinition(nq, nc)
	if phase, ok := number(doc["global_phase"]); ok {
		def.GlobalPhase = phase
	}
	steps, _ := doc["steps"].([]any)
	for i, raw := range steps {
		stepDoc, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d: expected object, got %T", i, raw)
		}
		childDoc, ok := stepDoc["op"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("step %d: missing op", i)
		}
		child, err := decodeOperation(childDoc, cfg)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		qubits, err := intList(stepDoc["qubits"])
		if err != nil {
			return nil, fmt.Errorf("step %d qubits: %w", i, err)
		}
		clbits, err := intList(stepDoc["clbits"])
		if err != nil {
			return nil, fmt.Errorf("step %d clbits: %w", i, err)
		}
		step := Step{Op: child, Qubits: qubits, Clbits: clbits}
		if condDoc, ok := stepDoc["condition"].(map[string]any); ok {
			condBits, err := intList(condDoc["clbits"])
			if err != nil {
				return nil, fmt.Errorf("step %d condition: %w", i, err)
			}
			value, _ := number(condDoc["value"])
			step.Condition = &Condition{Clbits: condBits, Value: uint64(value)}
		}
		if err := def.AppendStep(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return def, nil
}

func intField(doc map[string]any, key string) (int, error) {
	x, ok := number(doc[key])
	if !ok {
		return 0, fmt.Errorf("field %q: expected number, got %T", key, doc[key])
	}
	return int(x), nil
}

func intList(v any) ([]int, error) {
	if v == nil {
		return []int{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]int, len(items))
	for i, item := range items {
		x, ok := number(item)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected number, got %T", i, item)
		}
		out[i] = int(x)
	}
	return out, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
