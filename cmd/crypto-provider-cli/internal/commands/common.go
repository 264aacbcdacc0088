package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MGTheTrain/crypto-providers/internal/app"
	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// FlagConfig is the persistent flag naming the YAML configuration file
const FlagConfig = "config"

func setupLogger() (logger.Logger, error) {
	settings := &config.LoggerSettings{
		LogLevel: config.LogLevelInfo,
		LogType:  config.LogTypeConsole,
		FilePath: "",
	}

	if err := logger.InitLogger(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerInstance, err := logger.GetLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to get logger instance: %w", err)
	}

	return loggerInstance, nil
}

// setupProviders loads the configuration named by --config, or defaults plus environment when unset, and registers
// the providers it enables.
func setupProviders(cmd *cobra.Command, log logger.Logger) (*app.ProviderSet, error) {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid %s flag: %w", FlagConfig, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	set, err := app.NewProviderSet(&cfg.Providers, log)
	if err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}
	return set, nil
}

// findAlgorithm resolves name across the registry, or within one provider when providerName is set.
func findAlgorithm(set *app.ProviderSet, providerName, name string) (*algorithm.Algorithm, error) {
	if providerName == "" {
		alg, ok := set.Registry.AlgorithmByName(name)
		if !ok {
			return nil, fmt.Errorf("algorithm %s is not registered", name)
		}
		return alg, nil
	}

	algs, ok := set.Registry.Algorithms(providerName)
	if !ok {
		return nil, fmt.Errorf("provider %s is not registered", providerName)
	}
	for _, alg := range algs {
		if alg.Name() == name {
			return alg, nil
		}
	}
	return nil, fmt.Errorf("provider %s has no algorithm %s", providerName, name)
}

// keySource names where an operation takes its key from: a token object label or a key file.
type keySource struct {
	Label string
	File  string
}

// loadKey opens the key for an operation with the given purpose. Token objects are looked up by label on the
// pkcs11 provider. Key files hold raw bytes for symmetric algorithms and PEM or DER otherwise.
func loadKey(set *app.ProviderSet, alg *algorithm.Algorithm, src keySource, keyType crypto.KeyType, purpose crypto.Purpose) (*crypto.Key, error) {
	if src.Label != "" {
		if set.PKCS11 == nil {
			return nil, &crypto.ConfigurationError{Component: "key label", Reason: "the pkcs11 provider is disabled"}
		}
		return set.PKCS11.Key(src.Label, keyType)
	}
	if src.File == "" {
		return nil, fmt.Errorf("either a key file or a key label is required")
	}

	data, err := os.ReadFile(filepath.Clean(src.File))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if info, ok := alg.KeyGeneratorInfo(); ok && !info.Asymmetric {
		heap, err := set.Heap()
		if err != nil {
			return nil, err
		}
		return crypto.NewSecretKey(heap, alg.Name(), purpose, data)
	}

	parser, err := set.Parser()
	if err != nil {
		return nil, err
	}
	return parser.Load(data, alg.Name(), purpose)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(filepath.Clean(path), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
