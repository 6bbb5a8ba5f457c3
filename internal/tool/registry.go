package tool

import (
	"fmt"
	"sort"
)

// Registry maps tool names to executors. It is populated once at startup
// and read-only afterwards; each manager instance gets its own registry so
// tests never share process-wide state.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]Executor)}
}

// Register adds an executor under its name. Duplicate names are an error so
// a misconfigured startup fails loudly instead of shadowing a tool.
func (r *Registry) Register(e Executor) error {
	name := e.Name()
	if name == "" {
		return fmt.Errorf("executor has empty name")
	}
	if _, exists := r.executors[name]; exists {
		return fmt.Errorf("executor %q already registered", name)
	}
	r.executors[name] = e
	return nil
}

// MustRegister is Register for startup wiring, panicking on error.
func (r *Registry) MustRegister(e Executor) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Resolve returns the executor for the name.
func (r *Registry) Resolve(name string) (Executor, bool) {
	e, ok := r.executors[name]
	return e, ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Executors returns the registered executors, sorted by name.
func (r *Registry) Executors() []Executor {
	out := make([]Executor, 0, len(r.executors))
	for _, name := range r.Names() {
		out = append(out, r.executors[name])
	}
	return out
}
