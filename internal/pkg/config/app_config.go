package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CRYPTO_PROVIDERS_REST_PORT.
const EnvPrefix = "CRYPTO_PROVIDERS"

// AppConfig aggregates the settings of the REST API and CLI
type AppConfig struct {
	Logger    LoggerSettings   `mapstructure:"logger"`
	Providers ProviderSettings `mapstructure:"providers"`
	Rest      RestSettings     `mapstructure:"rest"`
}

// Validate validates every section
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Providers.Validate(); err != nil {
		return err
	}
	return c.Rest.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("providers.standard", true)
	v.SetDefault("providers.post_quantum", true)
	v.SetDefault("providers.pkcs11", false)
	v.SetDefault("rest.port", "8080")
	v.SetDefault("rest.allowed_origins", []string{"*"})
	v.SetDefault("rest.max_key_file_size", 1<<20)
}

// Load reads the YAML configuration at path, applies defaults and environment overrides, and validates it.
// An empty path loads defaults and environment only.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Providers.PKCS11 && cfg.Providers.PKCS11Config == nil {
		env, err := ReadPKCS11SettingsFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to read pkcs11 settings: %w", err)
		}
		cfg.Providers.PKCS11Config = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
