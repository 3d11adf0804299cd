// Package runtime implements the dollop evaluator: the environment a run
// executes against, the tree-walking engine with its step budget, and the
// Interpreter facade that embedding hosts use.
package runtime

import (
	"sort"
	"sync"

	"github.com/lemonberrylabs/dollop/pkg/types"
)

// Environment maps symbol names to values for one script run. The language
// has no user-defined closures, so there is a single flat scope: the host
// seeds it before the run starts and discards it when the run completes.
// Lookups are safe for concurrent readers.
type Environment struct {
	mu   sync.RWMutex
	vars map[string]types.Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{
		vars: make(map[string]types.Value),
	}
}

// Define binds a name to a value, replacing any existing binding.
func (e *Environment) Define(name string, value types.Value) {
	e.mu.Lock()
	e.vars[name] = value
	e.mu.Unlock()
}

// Lookup retrieves the value bound to a name.
func (e *Environment) Lookup(name string) (types.Value, bool) {
	e.mu.RLock()
	v, ok := e.vars[name]
	e.mu.RUnlock()
	return v, ok
}

// Names returns every bound name in sorted order.
func (e *Environment) Names() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	e.mu.RUnlock()
	sort.Strings(names)
	return names
}
