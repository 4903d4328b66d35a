package gates

import (
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

// Inverses returns the closed-form inverse of every invertible builtin gate.
// Measure and reset are absent: they have no inverse.
func Inverses() map[string]func(*op.Operation) (*op.Operation, error) {
	table := map[string]func(*op.Operation) (*op.Operation, error){}

	for _, name := range []string{"id", "h", "x", "y", "z", "cx", "cy", "cz", "swap", "ccx"} {
		table[name] = selfInverse
	}
	table["barrier"] = func(o *op.Operation) (*op.Operation, error) {
		return Barrier(o.NumQubits()), nil
	}

	for a, b := range map[string]string{"s": "sdg", "t": "tdg", "sx": "sxdg"} {
		table[a] = renamed(b)
		table[b] = renamed(a)
	}

	for _, name := range []string{"rx", "ry", "rz", "p", "crx", "cry", "crz", "cp"} {
		table[name] = negated(name)
	}

	// U(theta, phi, lambda)^-1 = U(-theta, -lambda, -phi)
	table["u"] = func(o *op.Operation) (*op.Operation, error) {
		p := o.Params()
		return build("u", param.Neg(p[0]), param.Neg(p[2]), param.Neg(p[1]))
	}
	return table
}

func selfInverse(o *op.Operation) (*op.Operation, error) {
	return build(o.Name(), o.Params()...)
}

func renamed(name string) func(*op.Operation) (*op.Operation, error) {
	return func(*op.Operation) (*op.Operation, error) {
		return build(name)
	}
}

func negated(name string) func(*op.Operation) (*op.Operation, error) {
	return func(o *op.Operation) (*op.Operation, error) {
		params := make([]param.Value, len(o.Params()))
		for i, p := range o.Params() {
			params[i] = param.Neg(p)
		}
		return build(name, params...)
	}
}
