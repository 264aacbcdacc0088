//go:build unit
// +build unit

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, LogLevelInfo, cfg.Logger.LogLevel)
	assert.Equal(t, LogTypeConsole, cfg.Logger.LogType)
	assert.True(t, cfg.Providers.Standard)
	assert.True(t, cfg.Providers.PostQuantum)
	assert.False(t, cfg.Providers.PKCS11)
	assert.Equal(t, "8080", cfg.Rest.Port)
	assert.Equal(t, int64(1<<20), cfg.Rest.MaxKeyFileSize)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
logger:
  log_level: debug
  log_type: console
providers:
  standard: true
  post_quantum: false
  pkcs11: true
  pkcs11_settings:
    module_path: /usr/lib/softhsm/libsofthsm2.so
    slot_id: 3
    user_pin: "1234"
rest:
  port: "9090"
`)
	t.Setenv("CRYPTO_PROVIDERS_REST_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, cfg.Logger.LogLevel)
	assert.False(t, cfg.Providers.PostQuantum)
	require.NotNil(t, cfg.Providers.PKCS11Config)
	assert.Equal(t, uint(3), cfg.Providers.PKCS11Config.SlotID)
	assert.Equal(t, "9191", cfg.Rest.Port)
}

func TestLoad_LogLevelFromEnv(t *testing.T) {
	t.Setenv("CRYPTO_PROVIDERS_LOGGER_LOG_LEVEL", "CRITICAL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelCritical, cfg.Logger.LogLevel)
}

func TestLoad_PKCS11FromEnv(t *testing.T) {
	path := writeConfig(t, `
providers:
  standard: false
  post_quantum: false
  pkcs11: true
`)
	t.Setenv(EnvPKCS11ModulePath, "/usr/lib/softhsm/libsofthsm2.so")
	t.Setenv(EnvPKCS11UserPin, "1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Providers.PKCS11Config)
	assert.Equal(t, "/usr/lib/softhsm/libsofthsm2.so", cfg.Providers.PKCS11Config.ModulePath)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, `
providers:
  standard: false
  post_quantum: false
  pkcs11: false
`)
	_, err = Load(path)
	assert.ErrorContains(t, err, "at least one provider")

	path = writeConfig(t, `
rest:
  port: "http"
`)
	_, err = Load(path)
	assert.Error(t, err)
}
