package transform

import (
	"slices"
	"sync"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/op"
)

// InverseFunc builds the closed-form inverse of a builtin operation.
type InverseFunc func(*op.Operation) (*op.Operation, error)

// Registry maps builtin operation names to closed-form inverses.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]InverseFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]InverseFunc)}
}

// DefaultRegistry returns a registry populated from the standard gate library.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range gates.Inverses() {
		r.Register(name, fn)
	}
	return r
}

// Register adds or replaces the inverse for name.
func (r *Registry) Register(name string, fn InverseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the inverse registered for name.
func (r *Registry) Lookup(name string) (InverseFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
