package app

import (
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/pkcs11"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/pqc"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/standard"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
)

// ProviderSet is the registry assembled from ProviderSettings together with the providers callers use directly.
// Standard and PKCS11 are nil when disabled.
type ProviderSet struct {
	Registry *provider.Registry
	Standard *standard.Provider
	PKCS11   *pkcs11.Provider

	sub    *securemem.Subsystem
	logger logger.Logger
}

// NewProviderSet registers the enabled providers in the order standard, pqc, pkcs11. Providers registered before a
// failure are closed again.
func NewProviderSet(settings *config.ProviderSettings, logger logger.Logger, opts ...pkcs11.Option) (*ProviderSet, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	sub := securemem.Default()
	set := &ProviderSet{Registry: provider.NewRegistry(logger), sub: sub, logger: logger}

	if settings.Standard {
		std, err := standard.NewProviderWithHeap(sub, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create standard provider: %w", err)
		}
		if err := set.add(std); err != nil {
			return nil, err
		}
		set.Standard = std
	}

	if settings.PostQuantum {
		post, err := pqc.NewProviderWithHeap(sub, logger)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("failed to create pqc provider: %w", err)
		}
		if err := set.add(post); err != nil {
			return nil, err
		}
	}

	if settings.PKCS11 {
		token, err := pkcs11.NewProvider(settings.PKCS11Config, logger, opts...)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("failed to create pkcs11 provider: %w", err)
		}
		if err := set.add(token); err != nil {
			return nil, err
		}
		set.PKCS11 = token
	}

	logger.Info(fmt.Sprintf("Registered %d providers", len(set.Registry.Providers())))
	return set, nil
}

func (s *ProviderSet) add(p provider.Provider) error {
	if err := s.Registry.AddProvider(p); err != nil {
		_ = s.Close()
		return fmt.Errorf("failed to register %s provider: %w", p.Name(), err)
	}
	return nil
}

// Parser returns the key parser of the standard provider.
func (s *ProviderSet) Parser() (*keyparser.Parser, error) {
	if s.Standard == nil {
		return nil, &crypto.ConfigurationError{Component: "key parser", Reason: "the standard provider is disabled"}
	}
	return s.Standard.Parser()
}

// Heap returns the secure heap of the standard provider.
func (s *ProviderSet) Heap() (*securemem.Heap, error) {
	if s.Standard == nil || s.Standard.Heap() == nil {
		return nil, &crypto.ConfigurationError{Component: "secure heap", Reason: "the standard provider is disabled"}
	}
	return s.Standard.Heap(), nil
}

// Close closes every registered provider.
func (s *ProviderSet) Close() error {
	err := s.Registry.Close()
	if handles := s.sub.Handles(); handles > 0 {
		s.logger.Warn(fmt.Sprintf("%d secure heap handles still open after closing providers", handles))
	}
	return err
}
