package app

import (
	"context"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
)

// hashingService implements the HashingService interface
type hashingService struct {
	registry *provider.Registry
	logger   logger.Logger
}

// NewHashingService creates a new hashingService instance
func NewHashingService(registry *provider.Registry, logger logger.Logger) (catalog.HashingService, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry must not be nil")
	}
	return &hashingService{
		registry: registry,
		logger:   logger,
	}, nil
}

// Hash digests data with the named hasher algorithm.
func (s *hashingService) Hash(ctx context.Context, algorithm string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	alg, ok := s.registry.AlgorithmByName(algorithm)
	if !ok {
		return "", fmt.Errorf("failed to resolve %s: %w", algorithm, catalog.ErrAlgorithmNotFound)
	}

	hasher, err := alg.NewHasher()
	if err != nil {
		return "", err
	}
	defer hasher.Close()

	digest, err := hasher.Hash(data)
	if err != nil {
		return "", err
	}

	s.logger.Info(fmt.Sprintf("Hashed %d bytes with %s", len(data), algorithm))
	return digest, nil
}
