package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ProviderSettings selects which providers are registered at startup. Registration order is standard, pqc,
// pkcs11, which decides algorithm name collisions.
type ProviderSettings struct {
	Standard     bool            `mapstructure:"standard"`
	PostQuantum  bool            `mapstructure:"post_quantum"`
	PKCS11       bool            `mapstructure:"pkcs11"`
	PKCS11Config *PKCS11Settings `mapstructure:"pkcs11_settings" validate:"required_if=PKCS11 true"`
}

// Validate checks that all fields in ProviderSettings are valid
func (s *ProviderSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for ProviderSettings: %w", err)
	}
	if !s.Standard && !s.PostQuantum && !s.PKCS11 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	if s.PKCS11 {
		if err := s.PKCS11Config.Validate(); err != nil {
			return err
		}
	}
	return nil
}
