package llm

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Registry holds the configured providers in registration order. The order
// is part of the fallback contract: after the leading provider (preferred,
// or the default when no preference is given), the remaining providers are
// tried exactly in the order they were registered.
type Registry struct {
	providers   []Provider
	byName      map[string]Provider
	defaultName string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Provider)}
}

// Register adds a provider. Registering the same name twice replaces the
// earlier provider but keeps its original position.
func (r *Registry) Register(p Provider) {
	name := p.Name()
	if _, ok := r.byName[name]; ok {
		for i, existing := range r.providers {
			if existing.Name() == name {
				r.providers[i] = p
				break
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byName[name] = p
}

// SetDefault marks the provider tried first when no preference is given.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.byName[name]; !ok {
		return eris.Errorf("llm: default provider %q not registered", name)
	}
	r.defaultName = name
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, eris.Errorf("llm: provider %q not registered (have: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// AttemptOrder returns the providers in the order they should be tried:
// the preferred provider when registered, otherwise the configured default
// when registered, then every remaining provider in registration order.
// The default gets no special position once a preferred provider leads.
// Duplicates are removed, so the result always lists each provider at most
// once.
func (r *Registry) AttemptOrder(preferred string) []Provider {
	seen := make(map[string]bool, len(r.providers))
	order := make([]Provider, 0, len(r.providers))

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		if p, ok := r.byName[name]; ok {
			order = append(order, p)
			seen[name] = true
		}
	}

	if _, ok := r.byName[preferred]; ok && preferred != "" {
		add(preferred)
	} else {
		add(r.defaultName)
	}
	for _, p := range r.providers {
		add(p.Name())
	}

	return order
}
