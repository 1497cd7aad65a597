package adapters

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smallbiznis/autocharge/internal/payment/domain"
)

// Registry maps a PAYMENT_PROVIDER name onto the factory that builds it.
type Registry struct {
	factories map[string]domain.AdapterFactory
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	r := &Registry{factories: make(map[string]domain.AdapterFactory, len(factories))}
	for _, f := range factories {
		if f == nil {
			continue
		}
		if name := providerKey(f.Provider()); name != "" {
			r.factories[name] = f
		}
	}
	return r
}

func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[providerKey(name)]
	return ok
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build constructs the named provider. Unknown names report the
// registered alternatives.
func (r *Registry) Build(name string, cfg domain.AdapterConfig) (domain.Provider, error) {
	if !r.Has(name) {
		return nil, fmt.Errorf("%w: %q (have %s)", domain.ErrProviderNotFound, name, strings.Join(r.Names(), ", "))
	}
	provider, err := r.factories[providerKey(name)].NewAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("payment provider %q: %w", name, err)
	}
	return provider, nil
}

func providerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
