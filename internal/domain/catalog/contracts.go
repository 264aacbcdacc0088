package catalog

import (
	"context"
	"errors"

	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
)

// ErrAlgorithmNotFound is returned when no registered provider offers an algorithm
var ErrAlgorithmNotFound = errors.New("algorithm not found")

// AlgorithmInfo describes an algorithm as resolved by the registry
type AlgorithmInfo struct {
	Name             string
	Provider         string
	Capabilities     []string
	BlockModes       []string
	DefaultBlockMode string
	// KeyGeneration is nil when the algorithm cannot generate keys
	KeyGeneration *KeyGenerationInfo
}

// KeyGenerationInfo describes the key generation capability of an algorithm
type KeyGenerationInfo struct {
	Purposes        []string
	DefaultKeySize  int
	AllowedKeySizes []int
	Asymmetric      bool
}

// CatalogService defines methods for discovering providers and algorithms.
type CatalogService interface {
	// Providers lists the registered providers in registration order.
	Providers(ctx context.Context) ([]provider.Info, error)

	// Algorithm describes the algorithm registered under name. Name collisions resolve to the provider
	// registered first.
	Algorithm(ctx context.Context, name string) (*AlgorithmInfo, error)
}

// HashingService defines methods for computing digests.
type HashingService interface {
	// Hash digests data with the named hasher algorithm and returns lowercase hex.
	Hash(ctx context.Context, algorithm string, data []byte) (string, error)
}
