package template

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores parsed templates by name.
// Construct one per resolution context; there is no package-level registry.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds a template under the given name.
// Returns ErrDuplicateTemplate if the name is already taken.
func (r *Registry) Register(name string, t *Template) error {
	if t == nil {
		return fmt.Errorf("register %q: nil template", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTemplate, name)
	}
	r.templates[name] = t
	return nil
}

// MustRegister is like Register but panics on error.
// Use only when the name is known to be free (e.g., in tests).
func (r *Registry) MustRegister(name string, t *Template) {
	if err := r.Register(name, t); err != nil {
		panic(fmt.Sprintf("template.MustRegister(%q): %v", name, err))
	}
}

// Lookup returns the named template.
// Returns ErrUnknownTemplate if it is not registered.
func (r *Registry) Lookup(name string) (*Template, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t, nil
}

// Has checks if a template is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[name]
	return ok
}

// Names returns the registered template names, sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.templates)
}

// Resolve flattens the named template's inheritance chain.
// See Resolve.
func (r *Registry) Resolve(name string) ([]ResolvedBlock, error) {
	return Resolve(r, name)
}
