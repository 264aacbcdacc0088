package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MGTheTrain/crypto-providers/internal/app"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// CatalogCommandHandler describes providers and algorithms, hashes files and lists token contents
type CatalogCommandHandler struct {
	logger logger.Logger
}

// NewCatalogCommandHandler initializes a CatalogCommandHandler with a configured logger
func NewCatalogCommandHandler() (*CatalogCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return &CatalogCommandHandler{logger: loggerInstance}, nil
}

// ListProvidersCmd lists the registered providers and their algorithms
func (h *CatalogCommandHandler) ListProvidersCmd(cmd *cobra.Command, _ []string) {
	h.withProviders(cmd, func(set *app.ProviderSet) (any, error) {
		service, err := app.NewCatalogService(set.Registry, h.logger)
		if err != nil {
			return nil, err
		}
		return service.Providers(commandContext(cmd))
	})
}

// DescribeAlgorithmCmd describes the capabilities of one algorithm
func (h *CatalogCommandHandler) DescribeAlgorithmCmd(cmd *cobra.Command, args []string) {
	h.withProviders(cmd, func(set *app.ProviderSet) (any, error) {
		service, err := app.NewCatalogService(set.Registry, h.logger)
		if err != nil {
			return nil, err
		}
		return service.Algorithm(commandContext(cmd), args[0])
	})
}

// HashCmd hashes a file with the given digest algorithm
func (h *CatalogCommandHandler) HashCmd(cmd *cobra.Command, _ []string) {
	algorithmName, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		h.logger.Error("invalid algorithm flag ", err)
		return
	}
	inputFilePath, err := cmd.Flags().GetString("input-file")
	if err != nil {
		h.logger.Error("invalid input-file flag ", err)
		return
	}

	h.withProviders(cmd, func(set *app.ProviderSet) (any, error) {
		return hashFile(commandContext(cmd), set, h.logger, algorithmName, inputFilePath)
	})
}

// ListTokensCmd lists the tokens visible to the pkcs11 provider
func (h *CatalogCommandHandler) ListTokensCmd(cmd *cobra.Command, _ []string) {
	h.withProviders(cmd, func(set *app.ProviderSet) (any, error) {
		if set.PKCS11 == nil {
			return nil, fmt.Errorf("the pkcs11 provider is disabled")
		}
		return set.PKCS11.Tokens()
	})
}

// ListObjectsCmd lists the key objects on the token of the pkcs11 provider
func (h *CatalogCommandHandler) ListObjectsCmd(cmd *cobra.Command, _ []string) {
	h.withProviders(cmd, func(set *app.ProviderSet) (any, error) {
		if set.PKCS11 == nil {
			return nil, fmt.Errorf("the pkcs11 provider is disabled")
		}
		return set.PKCS11.Objects()
	})
}

// withProviders runs query against the configured providers and logs its result as JSON.
func (h *CatalogCommandHandler) withProviders(cmd *cobra.Command, query func(set *app.ProviderSet) (any, error)) {
	set, err := setupProviders(cmd, h.logger)
	if err != nil {
		h.logger.Error(err)
		return
	}
	defer set.Close()

	result, err := query(set)
	if err != nil {
		h.logger.Error(err)
		return
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		h.logger.Error("failed to marshal result to JSON ", err)
		return
	}
	h.logger.Info(string(resultJSON))
}

// HashResult is the output of the hash command
type HashResult struct {
	Algorithm string `json:"algorithm"`
	File      string `json:"file"`
	Digest    string `json:"digest"`
}

func hashFile(ctx context.Context, set *app.ProviderSet, log logger.Logger, algorithmName, path string) (*HashResult, error) {
	service, err := app.NewHashingService(set.Registry, log)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	digest, err := service.Hash(ctx, algorithmName, data)
	if err != nil {
		return nil, err
	}
	return &HashResult{Algorithm: algorithmName, File: path, Digest: digest}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// InitCatalogCommands registers provider, algorithm, hash and token listing commands
func InitCatalogCommands(rootCmd *cobra.Command) error {
	handler, err := NewCatalogCommandHandler()
	if err != nil {
		return fmt.Errorf("failed to create catalog command handler: %w", err)
	}

	var providersCmd = &cobra.Command{
		Use:   "providers",
		Short: "List registered providers and their algorithms",
		Run:   handler.ListProvidersCmd,
	}
	rootCmd.AddCommand(providersCmd)

	var algorithmCmd = &cobra.Command{
		Use:   "algorithm <name>",
		Short: "Describe the capabilities of an algorithm",
		Args:  cobra.ExactArgs(1),
		Run:   handler.DescribeAlgorithmCmd,
	}
	rootCmd.AddCommand(algorithmCmd)

	var hashCmd = &cobra.Command{
		Use:   "hash",
		Short: "Hash a file",
		Run:   handler.HashCmd,
	}
	hashCmd.Flags().StringP("algorithm", "", "SHA-256", "Digest algorithm, e.g. SHA-256, SHA-512, SHA3-256, BLAKE2b-256")
	hashCmd.Flags().StringP("input-file", "", "", "Path to the file to hash")
	rootCmd.AddCommand(hashCmd)

	var tokensCmd = &cobra.Command{
		Use:   "list-tokens",
		Short: "List PKCS#11 tokens",
		Run:   handler.ListTokensCmd,
	}
	rootCmd.AddCommand(tokensCmd)

	var objectsCmd = &cobra.Command{
		Use:   "list-objects",
		Short: "List key objects on the configured PKCS#11 token",
		Run:   handler.ListObjectsCmd,
	}
	rootCmd.AddCommand(objectsCmd)

	return nil
}
