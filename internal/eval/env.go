// Package eval implements the weft evaluation engine: it takes a parsed
// document and a variable environment and produces final text.
package eval

import (
	"sync"

	"github.com/weft-lang/weft/internal/section"
)

// Variable is one entry in an Environment.
type Variable struct {
	Name   string
	Type   section.ValueType
	Text   string
	Number float64
	Raw    bool
	Params []section.Param
}

// Environment maps variable names to variables for one evaluation scope.
// Nested evaluations receive their own derived copy via Clone, never a
// reference to the caller's live environment.
type Environment struct {
	mu   sync.RWMutex
	vars map[string]Variable
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Variable)}
}

// Get retrieves a variable by name.
func (env *Environment) Get(name string) (Variable, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	v, ok := env.vars[name]
	return v, ok
}

// Set stores a variable, overwriting any existing entry. Conflict
// detection is the environment builder's job, not the map's.
func (env *Environment) Set(v Variable) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.vars[v.Name] = v
}

// Has reports whether a name is defined.
func (env *Environment) Has(name string) bool {
	env.mu.RLock()
	defer env.mu.RUnlock()
	_, ok := env.vars[name]
	return ok
}

// Len returns the number of defined variables.
func (env *Environment) Len() int {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return len(env.vars)
}

// Clone creates a shallow copy for a nested evaluation scope.
func (env *Environment) Clone() *Environment {
	env.mu.RLock()
	defer env.mu.RUnlock()
	clone := NewEnvironment()
	for k, v := range env.vars {
		clone.vars[k] = v
	}
	return clone
}
