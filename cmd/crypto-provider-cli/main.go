// Package main is the entry point for the crypto-provider-cli application.
// It registers the provider, key, cipher and signature commands and executes the command-line interface.
package main

import (
	"fmt"
	"log"
	"os"

	commands "github.com/MGTheTrain/crypto-providers/cmd/crypto-provider-cli/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "crypto-provider-cli",
		Short: "Cryptographic operations across pluggable providers",
		Long: `crypto-provider-cli runs key generation, encryption, signing and hashing through a registry
of crypto providers: the Go standard library, post-quantum algorithms and PKCS#11 tokens.

Providers are enabled in a YAML file passed with --config or through CRYPTO_PROVIDERS_* environment
variables. The PKCS#11 provider reads its module, slot and pin from:
- PKCS11_MODULE_PATH
- PKCS11_SLOT_ID
- PKCS11_USER_PIN
- PKCS11_TOKEN_LABEL (optional)`,
	}
	rootCmd.PersistentFlags().StringP(commands.FlagConfig, "", "", "Path to the YAML configuration file")

	if err := initializeCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// initializeCommands registers all command groups with the root command.
func initializeCommands(rootCmd *cobra.Command) error {
	if err := commands.InitCatalogCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize catalog commands: %w", err)
	}

	if err := commands.InitKeyCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize key commands: %w", err)
	}

	if err := commands.InitCryptoCommands(rootCmd); err != nil {
		return fmt.Errorf("failed to initialize crypto commands: %w", err)
	}

	return nil
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}
