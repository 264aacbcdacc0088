package provider

import (
	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
)

// Provider is a named, versioned bundle of algorithms backed by one native backend.
//
// Constructing a Provider has no side effects on any registry. Initialize is called exactly once, by
// Registry.AddProvider, and registers the provider's algorithms through the given Registrar. Close releases
// backend resources such as a secure heap handle or a token session.
type Provider interface {
	Name() string
	Description() string
	Version() string
	Initialize(r Registrar) error
	Close() error
}

// Registrar accepts algorithm registrations while a provider initializes.
type Registrar interface {
	Register(alg *algorithm.Algorithm) error
}

// Info is a read-only description of a registered provider.
type Info struct {
	Name        string
	Description string
	Version     string
	Algorithms  []string
}
