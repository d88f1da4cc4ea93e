package provider

import (
	"fmt"
	"sort"
	"sync"

	"ratesync/internal/apperrors"
)

// Registry holds every known rate provider keyed by code. Providers are
// registered once at startup, before the first sync or conversion call.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]RatesProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{byCode: make(map[string]RatesProvider)}
}

// Register adds a provider to the registry. Registering the same code twice
// is a conflict.
func (r *Registry) Register(p RatesProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := p.Code()
	if _, exists := r.byCode[code]; exists {
		return fmt.Errorf("%w: provider %s already registered", apperrors.ErrConflict, code)
	}
	r.byCode[code] = p
	return nil
}

// Get returns the provider registered under the given code.
func (r *Registry) Get(code string) (RatesProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s is not registered", apperrors.ErrNotFound, code)
	}
	return p, nil
}

// Has reports whether a provider is registered under the given code.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok
}

// List returns descriptors for every registered provider, sorted by code.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.byCode))
	for _, p := range r.byCode {
		descriptors = append(descriptors, p.Descriptor())
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Code < descriptors[j].Code
	})
	return descriptors
}
