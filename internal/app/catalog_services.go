package app

import (
	"context"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
)

// catalogService implements the CatalogService interface over a provider registry
type catalogService struct {
	registry *provider.Registry
	logger   logger.Logger
}

// NewCatalogService creates a new catalogService instance
func NewCatalogService(registry *provider.Registry, logger logger.Logger) (catalog.CatalogService, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry must not be nil")
	}
	return &catalogService{
		registry: registry,
		logger:   logger,
	}, nil
}

// Providers lists the registered providers in registration order.
func (s *catalogService) Providers(ctx context.Context) ([]provider.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.registry.Describe(), nil
}

// Algorithm describes the algorithm registered under name.
func (s *catalogService) Algorithm(ctx context.Context, name string) (*catalog.AlgorithmInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	alg, owner, ok := s.registry.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, catalog.ErrAlgorithmNotFound)
	}

	info := &catalog.AlgorithmInfo{
		Name:             alg.Name(),
		Provider:         owner.Name(),
		DefaultBlockMode: string(alg.DefaultBlockMode()),
	}
	for _, c := range alg.Capabilities() {
		info.Capabilities = append(info.Capabilities, string(c))
	}
	for _, mode := range alg.BlockModes() {
		info.BlockModes = append(info.BlockModes, string(mode))
	}
	if gen, ok := alg.KeyGeneratorInfo(); ok {
		info.KeyGeneration = &catalog.KeyGenerationInfo{
			Purposes:        gen.KeyPurposes.Names(),
			DefaultKeySize:  gen.DefaultKeySize,
			AllowedKeySizes: gen.AllowedKeySizes,
			Asymmetric:      gen.Asymmetric,
		}
	}
	return info, nil
}
