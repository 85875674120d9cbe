package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/driftos/driftd/pkg/provider/analyzer"
	"github.com/driftos/driftd/pkg/provider/encoder"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	encoder  map[string]func(ProviderEntry) (encoder.Provider, error)
	analyzer map[string]func(ProviderEntry) (analyzer.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		encoder:  make(map[string]func(ProviderEntry) (encoder.Provider, error)),
		analyzer: make(map[string]func(ProviderEntry) (analyzer.Provider, error)),
	}
}

// RegisterEncoder registers an encoder provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterEncoder(name string, factory func(ProviderEntry) (encoder.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoder[name] = factory
}

// RegisterAnalyzer registers an analyzer provider factory under name.
func (r *Registry) RegisterAnalyzer(name string, factory func(ProviderEntry) (analyzer.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzer[name] = factory
}

// CreateEncoder instantiates an encoder provider using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateEncoder(entry ProviderEntry) (encoder.Provider, error) {
	r.mu.RLock()
	factory, ok := r.encoder[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: encoder/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateAnalyzer instantiates an analyzer provider using the factory
// registered under entry.Name.
func (r *Registry) CreateAnalyzer(entry ProviderEntry) (analyzer.Provider, error) {
	r.mu.RLock()
	factory, ok := r.analyzer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: analyzer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
