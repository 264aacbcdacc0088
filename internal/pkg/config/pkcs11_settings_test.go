//go:build unit
// +build unit

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCS11SettingsValidation(t *testing.T) {
	tests := []struct {
		name          string
		settings      *PKCS11Settings
		expectedError bool
	}{
		{
			name:          "valid settings",
			settings:      &PKCS11Settings{ModulePath: "/usr/lib/softhsm/libsofthsm2.so", UserPin: "1234"},
			expectedError: false,
		},
		{
			name:          "missing module path",
			settings:      &PKCS11Settings{UserPin: "1234"},
			expectedError: true,
		},
		{
			name:          "missing user pin",
			settings:      &PKCS11Settings{ModulePath: "/usr/lib/softhsm/libsofthsm2.so"},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadPKCS11SettingsFromEnv(t *testing.T) {
	t.Setenv(EnvPKCS11ModulePath, "/usr/lib/softhsm/libsofthsm2.so")
	t.Setenv(EnvPKCS11UserPin, "1234")
	t.Setenv(EnvPKCS11SlotID, "7")
	t.Setenv(EnvPKCS11TokenLabel, "providers")

	settings, err := ReadPKCS11SettingsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, uint(7), settings.SlotID)
	assert.Equal(t, "providers", settings.TokenLabel)

	t.Setenv(EnvPKCS11SlotID, "not-a-number")
	_, err = ReadPKCS11SettingsFromEnv()
	assert.Error(t, err)

	t.Setenv(EnvPKCS11SlotID, "0")
	t.Setenv(EnvPKCS11UserPin, "")
	_, err = ReadPKCS11SettingsFromEnv()
	assert.Error(t, err)
}
