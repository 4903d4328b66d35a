package gates

import (
	"fmt"
	"slices"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

type gateSpec struct {
	numQubits int
	numClbits int
	numParams int
	kind      op.Kind
	definer   op.Definer
}

// catalogue lists every named gate. Barrier is absent: its width varies.
var catalogue map[string]gateSpec

func init() {
	catalogue = map[string]gateSpec{
		"id":   {numQubits: 1, kind: op.KindGate},
		"h":    {numQubits: 1, kind: op.KindGate},
		"x":    {numQubits: 1, kind: op.KindGate},
		"y":    {numQubits: 1, kind: op.KindGate},
		"z":    {numQubits: 1, kind: op.KindGate},
		"s":    {numQubits: 1, kind: op.KindGate},
		"sdg":  {numQubits: 1, kind: op.KindGate},
		"t":    {numQubits: 1, kind: op.KindGate},
		"tdg":  {numQubits: 1, kind: op.KindGate},
		"sx":   {numQubits: 1, kind: op.KindGate},
		"sxdg": {numQubits: 1, kind: op.KindGate},
		"rx":   {numQubits: 1, numParams: 1, kind: op.KindGate},
		"ry":   {numQubits: 1, numParams: 1, kind: op.KindGate},
		"rz":   {numQubits: 1, numParams: 1, kind: op.KindGate},
		"p":    {numQubits: 1, numParams: 1, kind: op.KindGate},
		"u":    {numQubits: 1, numParams: 3, kind: op.KindGate},
		"cx":   {numQubits: 2, kind: op.KindGate},

		"cz":   {numQubits: 2, kind: op.KindGate, definer: defineCZ},
		"cy":   {numQubits: 2, kind: op.KindGate, definer: defineCY},
		"swap": {numQubits: 2, kind: op.KindGate, definer: defineSwap},
		"crx":  {numQubits: 2, numParams: 1, kind: op.KindGate, definer: defineCRX},
		"cry":  {numQubits: 2, numParams: 1, kind: op.KindGate, definer: defineCRY},
		"crz":  {numQubits: 2, numParams: 1, kind: op.KindGate, definer: defineCRZ},
		"cp":   {numQubits: 2, numParams: 1, kind: op.KindGate, definer: defineCP},
		"ccx":  {numQubits: 3, kind: op.KindGate, definer: defineCCX},

		"measure": {numQubits: 1, numClbits: 1, kind: op.KindMeasure},
		"reset":   {numQubits: 1, kind: op.KindReset},
	}
}

func build(name string, params ...param.Value) (*op.Operation, error) {
	spec, ok := catalogue[name]
	if !ok {
		return nil, fmt.Errorf("unknown gate %q", name)
	}
	if len(params) != spec.numParams {
		return nil, fmt.Errorf("gate %s takes %d params, got %d", name, spec.numParams, len(params))
	}
	opts := []op.Option{op.Builtin(), op.WithKind(spec.kind)}
	if spec.definer != nil {
		opts = append(opts, op.WithDefiner(spec.definer))
	}
	return op.New(name, spec.numQubits, spec.numClbits, params, opts...)
}

func mustBuild(name string, params ...param.Value) *op.Operation {
	o, err := build(name, params...)
	if err != nil {
		panic(err)
	}
	return o
}

func ID() *op.Operation   { return mustBuild("id") }
func H() *op.Operation    { return mustBuild("h") }
func X() *op.Operation    { return mustBuild("x") }
func Y() *op.Operation    { return mustBuild("y") }
func Z() *op.Operation    { return mustBuild("z") }
func S() *op.Operation    { return mustBuild("s") }
func Sdg() *op.Operation  { return mustBuild("sdg") }
func T() *op.Operation    { return mustBuild("t") }
func Tdg() *op.Operation  { return mustBuild("tdg") }
func SX() *op.Operation   { return mustBuild("sx") }
func SXdg() *op.Operation { return mustBuild("sxdg") }
func CX() *op.Operation   { return mustBuild("cx") }
func CZ() *op.Operation   { return mustBuild("cz") }
func CY() *op.Operation   { return mustBuild("cy") }
func Swap() *op.Operation { return mustBuild("swap") }
func CCX() *op.Operation  { return mustBuild("ccx") }

func RX(theta param.Value) *op.Operation  { return mustBuild("rx", theta) }
func RY(theta param.Value) *op.Operation  { return mustBuild("ry", theta) }
func RZ(theta param.Value) *op.Operation  { return mustBuild("rz", theta) }
func P(lambda param.Value) *op.Operation  { return mustBuild("p", lambda) }
func CRX(theta param.Value) *op.Operation { return mustBuild("crx", theta) }
func CRY(theta param.Value) *op.Operation { return mustBuild("cry", theta) }
func CRZ(theta param.Value) *op.Operation { return mustBuild("crz", theta) }
func CP(lambda param.Value) *op.Operation { return mustBuild("cp", lambda) }

// U is the generic single-qubit rotation U(theta, phi, lambda).
func U(theta, phi, lambda param.Value) *op.Operation {
	return mustBuild("u", theta, phi, lambda)
}

// Measure reads one qubit into one clbit.
func Measure() *op.Operation { return mustBuild("measure") }

// Reset returns one qubit to |0>.
func Reset() *op.Operation { return mustBuild("reset") }

// Barrier spans n qubits and is its own inverse.
func Barrier(n int) *op.Operation {
	return op.MustNew("barrier", n, 0, nil, op.Builtin(), op.WithKind(op.KindBarrier))
}

// Lookup builds the named gate. numQubits is only consulted for barrier.
func Lookup(name string, numQubits int, params []param.Value) (*op.Operation, bool) {
	if name == "barrier" {
		if numQubits < 1 || len(params) != 0 {
			return nil, false
		}
		return Barrier(numQubits), true
	}
	o, err := build(name, params...)
	if err != nil || o.NumQubits() != numQubits {
		return nil, false
	}
	return o, true
}

// New builds the named gate, reporting why it could not.
func New(name string, numQubits int, params []param.Value) (*op.Operation, error) {
	if o, ok := Lookup(name, numQubits, params); ok {
		return o, nil
	}
	if name == "barrier" {
		return nil, fmt.Errorf("barrier needs at least one qubit and no params")
	}
	if _, err := build(name, params...); err != nil {
		return nil, err
	}
	spec := catalogue[name]
	return nil, op.NewShapeError(name, spec.numQubits, spec.numClbits, numQubits, spec.numClbits)
}

// Names returns every gate name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalogue)+1)
	for name := range catalogue {
		names = append(names, name)
	}
	names = append(names, "barrier")
	slices.Sort(names)
	return names
}

// Arity returns the qubit, clbit and param counts of a named gate.
// Barrier reports zero qubits because its width is chosen per use.
func Arity(name string) (numQubits, numClbits, numParams int, ok bool) {
	if name == "barrier" {
		return 0, 0, 0, true
	}
	spec, ok := catalogue[name]
	return spec.numQubits, spec.numClbits, spec.numParams, ok
}
