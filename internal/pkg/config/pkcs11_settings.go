package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by ReadPKCS11SettingsFromEnv
const (
	EnvPKCS11ModulePath = "PKCS11_MODULE_PATH"
	EnvPKCS11SlotID     = "PKCS11_SLOT_ID"
	EnvPKCS11UserPin    = "PKCS11_USER_PIN"
	EnvPKCS11TokenLabel = "PKCS11_TOKEN_LABEL"
)

// PKCS11Settings holds the parameters needed to open a session on a PKCS#11 token
type PKCS11Settings struct {
	ModulePath string `mapstructure:"module_path" validate:"required"`
	SlotID     uint   `mapstructure:"slot_id"`
	UserPin    string `mapstructure:"user_pin" validate:"required"`
	TokenLabel string `mapstructure:"token_label"`
}

// Validate checks that all fields in PKCS11Settings are valid
func (s *PKCS11Settings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for PKCS11Settings: %w", err)
	}
	return nil
}

// ReadPKCS11SettingsFromEnv reads PKCS#11 settings from the environment. Missing variables leave fields empty so
// Validate reports them.
func ReadPKCS11SettingsFromEnv() (*PKCS11Settings, error) {
	settings := &PKCS11Settings{
		ModulePath: os.Getenv(EnvPKCS11ModulePath),
		UserPin:    os.Getenv(EnvPKCS11UserPin),
		TokenLabel: os.Getenv(EnvPKCS11TokenLabel),
	}

	if raw := os.Getenv(EnvPKCS11SlotID); raw != "" {
		slot, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", EnvPKCS11SlotID, err)
		}
		settings.SlotID = uint(slot)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
