package markup

import (
	"fmt"
	"strings"
)

// Registry keeps a mapping from dialect names to their implementations.
type Registry struct {
	dialects map[string]Dialect
}

// NewRegistry builds a registry with the built-in dialects registered.
func NewRegistry() *Registry {
	r := &Registry{dialects: map[string]Dialect{}}
	r.Register(HTML{})
	r.Register(Markdown{})
	return r
}

// Register adds or replaces a dialect implementation.
func (r *Registry) Register(d Dialect) {
	if r.dialects == nil {
		r.dialects = map[string]Dialect{}
	}
	r.dialects[d.Name()] = d
}

// Resolve returns a dialect by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Dialect, error) {
	if d, ok := r.dialects[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("dialect %s is not registered", name)
}

// ResolveOrDefault falls back to HTML for unknown names.
func (r *Registry) ResolveOrDefault(name string) Dialect {
	d, err := r.Resolve(name)
	if err != nil {
		return HTML{}
	}
	return d
}
