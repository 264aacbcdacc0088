// Package config provides functionality for loading and managing application configuration.
//
// Settings are read from a YAML file through viper, overridden by CRYPTO_PROVIDERS_* environment variables and
// validated with go-playground/validator before any provider is constructed.
package config
