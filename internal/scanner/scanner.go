package scanner

import (
	"fmt"
	"sort"
	"strings"

	"PriceTracker/internal/domain"
	"PriceTracker/internal/ports"
)

// Source is a site strategy (UDN, etc.) able to list headlines and parse articles.
type Source interface {
	ports.NewsSource
	Name() string
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("scanner %s (registered: %s): %w", name, strings.Join(r.Names(), ", "), domain.ErrSourceNotRegistered)
}

// Names lists the registered scanners in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
