package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RestSettings holds the REST server configuration
type RestSettings struct {
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// MaxKeyFileSize bounds uploaded key files in bytes.
	MaxKeyFileSize int64 `mapstructure:"max_key_file_size" validate:"gte=0"`
}

// Validate checks that all fields in RestSettings are valid
func (s *RestSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for RestSettings: %w", err)
	}
	return nil
}
