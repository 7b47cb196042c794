package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Factory builds a backend on first use.
type Factory func() (Fetcher, error)

// Registry hands out backends by name. Backends are built lazily so that a
// browser is only launched once a request actually asks for it.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	fetchers  map[string]Fetcher
	closed    bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		fetchers:  make(map[string]Fetcher),
	}
}

// Register adds a backend factory under name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get returns the backend registered under name, building it if needed.
func (r *Registry) Get(name string) (Fetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("registry is closed")
	}
	if f, ok := r.fetchers[name]; ok {
		return f, nil
	}

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	log.Debug().Str("backend", name).Msg("Initializing backend on demand")
	f, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start %s backend: %w", name, err)
	}
	r.fetchers[name] = f
	return f, nil
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[name]
	return ok
}

// Names lists the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every backend that was started. Later Get calls fail.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for name, f := range r.fetchers {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("Error closing backend")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	r.fetchers = nil
	return errors.Join(errs...)
}
