package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/mortar/pkg/value"
)

// Function is a host callback exposed to scripts. It receives the evaluated
// arguments and returns a single Value (Void when it has nothing to say).
type Function func(args []value.Value) value.Value

// Registry maps script-visible function names to host callbacks.
// It is read concurrently during evaluation and written by the host binder.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
	}
}

// Register binds fn to name.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// RegisterPredicate is a convenience for boolean host checks used in conditions.
func (r *Registry) RegisterPredicate(name string, fn func(args []value.Value) bool) {
	r.Register(name, func(args []value.Value) value.Value {
		return value.Boolean(fn(args))
	})
}

// Call invokes the function bound to name.
// The second return is false when nothing is bound; a nil registry behaves as empty.
func (r *Registry) Call(name string, args ...value.Value) (value.Value, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}

	result := fn(args)
	if result == nil {
		result = value.Void{}
	}
	return result, true
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names returns the bound names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
