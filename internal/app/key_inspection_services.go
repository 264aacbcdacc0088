package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
)

// keyInspectionService implements the KeyInspectionService interface
type keyInspectionService struct {
	parser   *keyparser.Parser
	registry *provider.Registry
	logger   logger.Logger
}

// NewKeyInspectionService creates a new keyInspectionService instance
func NewKeyInspectionService(parser *keyparser.Parser, registry *provider.Registry, logger logger.Logger) (keys.KeyInspectionService, error) {
	if parser == nil || registry == nil {
		return nil, fmt.Errorf("parser and registry must not be nil")
	}
	return &keyInspectionService{
		parser:   parser,
		registry: registry,
		logger:   logger,
	}, nil
}

// Inspect parses data and describes the resulting key.
func (s *keyInspectionService) Inspect(ctx context.Context, data []byte, expectedAlgorithm string) (*keys.KeyInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := s.parser.Load(data, expectedAlgorithm, crypto.PurposeNone)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	info := &keys.KeyInfo{
		ID:        key.ID(),
		Algorithm: key.Algorithm(),
		Type:      string(key.Type()),
		Format:    string(key.Format()),
		Size:      key.Size(),
		Purposes:  key.Purposes().Names(),
	}
	if _, owner, ok := s.registry.Resolve(key.Algorithm()); ok {
		info.Provider = owner.Name()
	}

	fingerprint, err := keyparser.Fingerprint(key)
	switch {
	case err == nil:
		info.Fingerprint = fingerprint
	case errors.Is(err, crypto.ErrOperationNotSupported):
		s.logger.Warn(fmt.Sprintf("No fingerprint for %s %s key", key.Algorithm(), key.Type()))
	default:
		return nil, fmt.Errorf("failed to fingerprint key: %w", err)
	}

	s.logger.Info(fmt.Sprintf("Inspected %s %s key %s", key.Algorithm(), key.Type(), info.ID))
	return info, nil
}
