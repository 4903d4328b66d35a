package op

import "github.com/roach88/gatekit/internal/param"

// Default tolerances for SoftCompare.
const (
	DefaultRTol = 1e-5
	DefaultATol = 1e-8
)

type compareConfig struct {
	rtol float64
	atol float64
}

// CompareOption configures SoftCompare.
type CompareOption func(*compareConfig)

// WithTolerance overrides the relative and absolute tolerances.
func WithTolerance(rtol, atol float64) CompareOption {
	return func(c *compareConfig) {
		c.rtol = rtol
		c.atol = atol
	}
}

// Equal reports whether o and other have the same name, shape and params.
// Kind, label and definition are ignored.
func (o *Operation) Equal(other *Operation) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.name != other.name || o.numQubits != other.numQubits || o.numClbits != other.numClbits {
		return false
	}
	return param.EqualSlices(o.params, other.params)
}

// SoftCompare is Equal with a numeric tolerance on params. A symbolic param
// on either side matches anything; concrete params must satisfy
// |a-b| <= atol + rtol*|b|.
func (o *Operation) SoftCompare(other *Operation, opts ...CompareOption) bool {
	if o == nil || other == nil {
		return o == other
	}
	if o.name != other.name || o.numQubits != other.numQubits || o.numClbits != other.numClbits {
		return false
	}
	if len(o.params) != len(other.params) {
		return false
	}
	cfg := compareConfig{rtol: DefaultRTol, atol: DefaultATol}
	for _, opt := range opts {
		opt(&cfg)
	}
	for i := range o.params {
		if !param.Close(o.params[i], other.params[i], cfg.rtol, cfg.atol) {
			return false
		}
	}
	return true
}
