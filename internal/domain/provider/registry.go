package provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
)

type entry struct {
	provider   Provider
	algorithms []*algorithm.Algorithm
}

// Registry holds providers in registration order. Algorithm lookups return the first registered match when
// several providers expose the same name.
type Registry struct {
	logger logger.Logger

	// addMu serializes AddProvider so Initialize runs outside mu.
	addMu sync.Mutex

	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry
	closed  bool
}

// NewRegistry creates an empty registry
func NewRegistry(logger logger.Logger) *Registry {
	return &Registry{
		logger: logger,
		byName: make(map[string]*entry),
	}
}

// AddProvider initializes p and registers its algorithms.
func (r *Registry) AddProvider(p Provider) error {
	if p == nil {
		return &crypto.ConfigurationError{Component: "registry", Reason: "provider is nil"}
	}

	r.addMu.Lock()
	defer r.addMu.Unlock()

	r.mu.RLock()
	closed := r.closed
	_, exists := r.byName[p.Name()]
	r.mu.RUnlock()

	if closed {
		return fmt.Errorf("failed to add provider %s: %w", p.Name(), crypto.ErrRegistryClosed)
	}
	if exists {
		return &crypto.DuplicateProviderError{Name: p.Name()}
	}

	reg := &registrar{provider: p.Name(), names: make(map[string]struct{})}
	err := p.Initialize(reg)
	reg.seal()
	if err != nil {
		if closeErr := p.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return fmt.Errorf("failed to initialize provider %s: %w", p.Name(), err)
	}

	e := &entry{provider: p, algorithms: reg.algorithms}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.byName[p.Name()] = e
	r.mu.Unlock()

	r.logger.Info(fmt.Sprintf("Provider %s %s registered with %d algorithms", p.Name(), p.Version(), len(e.algorithms)))
	return nil
}

// ProviderByName returns the provider registered under name.
func (r *Registry) ProviderByName(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// AlgorithmByName returns the first algorithm called name in provider registration order.
func (r *Registry) AlgorithmByName(name string) (*algorithm.Algorithm, bool) {
	alg, _, ok := r.Resolve(name)
	return alg, ok
}

// Resolve is AlgorithmByName that also reports the provider the algorithm came from.
func (r *Registry) Resolve(name string) (*algorithm.Algorithm, Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		for _, alg := range e.algorithms {
			if alg.Name() == name {
				return alg, e.provider, true
			}
		}
	}
	return nil, nil, false
}

// Algorithms returns the algorithms of one provider in registration order.
func (r *Registry) Algorithms(providerName string) ([]*algorithm.Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[providerName]
	if !ok {
		return nil, false
	}
	return append([]*algorithm.Algorithm(nil), e.algorithms...), true
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(r.entries))
	for _, e := range r.entries {
		providers = append(providers, e.provider)
	}
	return providers
}

// Describe returns an Info per provider in registration order.
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		names := make([]string, 0, len(e.algorithms))
		for _, alg := range e.algorithms {
			names = append(names, alg.Name())
		}
		infos = append(infos, Info{
			Name:        e.provider.Name(),
			Description: e.provider.Description(),
			Version:     e.provider.Version(),
			Algorithms:  names,
		})
	}
	return infos
}

// Close closes every provider in registration order and joins their errors. Later calls return nil.
func (r *Registry) Close() error {
	r.addMu.Lock()
	defer r.addMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = nil
	r.byName = make(map[string]*entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %s: %w", e.provider.Name(), err))
			continue
		}
		r.logger.Info(fmt.Sprintf("Provider %s closed", e.provider.Name()))
	}
	return errors.Join(errs...)
}

// registrar is handed to exactly one Provider.Initialize call.
type registrar struct {
	mu         sync.Mutex
	provider   string
	algorithms []*algorithm.Algorithm
	names      map[string]struct{}
	sealed     bool
}

func (g *registrar) Register(alg *algorithm.Algorithm) error {
	if alg == nil {
		return &crypto.ConfigurationError{Component: g.provider, Reason: "algorithm is nil"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sealed {
		return &crypto.ConfigurationError{
			Component: g.provider,
			Reason:    fmt.Sprintf("algorithm %s registered after initialization", alg.Name()),
		}
	}
	if _, ok := g.names[alg.Name()]; ok {
		return &crypto.ConfigurationError{
			Component: g.provider,
			Reason:    fmt.Sprintf("algorithm %s registered more than once", alg.Name()),
		}
	}
	g.names[alg.Name()] = struct{}{}
	g.algorithms = append(g.algorithms, alg)
	return nil
}

func (g *registrar) seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
}
