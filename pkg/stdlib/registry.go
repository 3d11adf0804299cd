// Package stdlib implements the dollop standard library functions.
package stdlib

import (
	"sort"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// Registry holds standard library functions before they are seeded into an
// environment.
type Registry struct {
	funcs map[string]types.NativeFunc
}

// NewRegistry creates a registry with all built-in functions registered.
// print is not among them; bind it with RegisterPrint so the host chooses
// the output stream.
func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]types.NativeFunc),
	}
	r.registerCore()
	r.registerMath()
	r.registerText()
	return r
}

// Register adds a function to the registry.
func (r *Registry) Register(name string, fn types.NativeFunc) {
	r.funcs[name] = fn
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (types.NativeFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Binder receives seeded bindings. *runtime.Environment satisfies it.
type Binder interface {
	Define(name string, v types.Value)
}

// Seed defines every registered function on b as a function value.
func (r *Registry) Seed(b Binder) {
	for name, fn := range r.funcs {
		b.Define(name, types.NewFunction(name, fn))
	}
}
