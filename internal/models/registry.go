package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dohr-michael/sidekick/internal/config"
)

// ProviderEntry holds a lazily-initialized gateway.
type ProviderEntry struct {
	Config  config.ProviderConfig
	gateway Gateway
	once    sync.Once
	err     error
}

// Registry manages named providers with lazy initialization.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]*ProviderEntry
	defaultName string
	factory     func(context.Context, config.ProviderConfig) (Gateway, error)
}

// NewRegistry creates a registry from config.
func NewRegistry(cfg config.ModelsConfig) *Registry {
	r := &Registry{
		providers:   make(map[string]*ProviderEntry),
		defaultName: cfg.Default,
		factory:     New,
	}

	for name, provCfg := range cfg.Providers {
		r.providers[name] = &ProviderEntry{Config: provCfg}
	}

	return r
}

// Get returns the named gateway, initializing it lazily.
func (r *Registry) Get(ctx context.Context, name string) (Gateway, error) {
	r.mu.RLock()
	entry, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("model provider %q not found", name)
	}

	entry.once.Do(func() {
		entry.gateway, entry.err = r.factory(ctx, entry.Config)
	})

	return entry.gateway, entry.err
}

// Default returns the default gateway.
func (r *Registry) Default(ctx context.Context) (Gateway, error) {
	if r.defaultName == "" {
		return nil, fmt.Errorf("no default model configured")
	}
	return r.Get(ctx, r.defaultName)
}

// DefaultName returns the name of the default provider.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Names returns the configured provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
