package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MGTheTrain/crypto-providers/internal/app"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/pkcs11"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/validators"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// GenerateKeyRequest holds the flags of generate-key
type GenerateKeyRequest struct {
	Algorithm string `validate:"required"`
	Provider  string
	KeySize   uint `validate:"keysize"`
	Purposes  []string
	KeyDir    string `validate:"required_unless=Provider pkcs11"`
}

// Validate checks the request, including the key size against the algorithm
func (r *GenerateKeyRequest) Validate() error {
	validate := validator.New()
	if err := validators.RegisterKeySize(validate); err != nil {
		return fmt.Errorf("failed to register key size validation: %w", err)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("validation failed for generate-key: %w", err)
	}
	return nil
}

// KeyCommandHandler generates and inspects keys
type KeyCommandHandler struct {
	logger logger.Logger
}

// NewKeyCommandHandler initializes a KeyCommandHandler with a configured logger
func NewKeyCommandHandler() (*KeyCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return &KeyCommandHandler{logger: loggerInstance}, nil
}

// GenerateKeyCmd generates a key or key pair and stores it in a key directory, or on the token for pkcs11
func (h *KeyCommandHandler) GenerateKeyCmd(cmd *cobra.Command, _ []string) {
	var req GenerateKeyRequest
	var err error
	if req.Algorithm, err = cmd.Flags().GetString("algorithm"); err != nil {
		h.logger.Error("invalid algorithm flag ", err)
		return
	}
	if req.Provider, err = cmd.Flags().GetString("provider"); err != nil {
		h.logger.Error("invalid provider flag ", err)
		return
	}
	if req.KeySize, err = cmd.Flags().GetUint("key-size"); err != nil {
		h.logger.Error("invalid key-size flag ", err)
		return
	}
	if req.Purposes, err = cmd.Flags().GetStringSlice("purposes"); err != nil {
		h.logger.Error("invalid purposes flag ", err)
		return
	}
	if req.KeyDir, err = cmd.Flags().GetString("key-dir"); err != nil {
		h.logger.Error("invalid key-dir flag ", err)
		return
	}

	set, err := setupProviders(cmd, h.logger)
	if err != nil {
		h.logger.Error(err)
		return
	}
	defer set.Close()

	locations, err := generateKey(set, &req)
	if err != nil {
		h.logger.Error(err)
		return
	}
	for _, location := range locations {
		h.logger.Info(fmt.Sprintf("%s key stored at %s", req.Algorithm, location))
	}
}

// InspectKeyCmd parses a key file and prints what it holds
func (h *KeyCommandHandler) InspectKeyCmd(cmd *cobra.Command, _ []string) {
	keyFile, err := cmd.Flags().GetString("key-file")
	if err != nil {
		h.logger.Error("invalid key-file flag ", err)
		return
	}
	algorithmName, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		h.logger.Error("invalid algorithm flag ", err)
		return
	}

	set, err := setupProviders(cmd, h.logger)
	if err != nil {
		h.logger.Error(err)
		return
	}
	defer set.Close()

	info, err := inspectKey(commandContext(cmd), set, h.logger, keyFile, algorithmName)
	if err != nil {
		h.logger.Error(err)
		return
	}

	infoJSON, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		h.logger.Error("failed to marshal key info to JSON ", err)
		return
	}
	h.logger.Info(string(infoJSON))
}

// generateKey returns the files written, or the token labels of token-resident keys.
func generateKey(set *app.ProviderSet, req *GenerateKeyRequest) ([]string, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	alg, err := findAlgorithm(set, req.Provider, req.Algorithm)
	if err != nil {
		return nil, err
	}
	info, ok := alg.KeyGeneratorInfo()
	if !ok {
		return nil, fmt.Errorf("%s cannot generate keys: %w", alg.Name(), crypto.ErrCapabilityNotAvailable)
	}

	purposes := info.KeyPurposes
	if len(req.Purposes) > 0 {
		if purposes, err = crypto.ParsePurposes(req.Purposes...); err != nil {
			return nil, err
		}
	}
	spec := crypto.NewGenerationSpec(purposes).WithKeySize(int(req.KeySize))
	prefix := uuid.NewString()

	if !info.Asymmetric {
		gen, err := alg.NewKeyGenerator(spec)
		if err != nil {
			return nil, err
		}
		defer gen.Close()

		key, err := gen.GenerateKey()
		if err != nil {
			return nil, err
		}
		defer key.Destroy()

		location, err := persistKey(key, req.KeyDir, prefix)
		if err != nil {
			return nil, err
		}
		return []string{location}, nil
	}

	gen, err := alg.NewKeyPairGenerator(spec)
	if err != nil {
		return nil, err
	}
	defer gen.Close()

	pair, err := gen.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer pair.Destroy()

	var locations []string
	for _, key := range []*crypto.Key{pair.Private, pair.Public} {
		location, err := persistKey(key, req.KeyDir, prefix)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, nil
}

// persistKey writes key below keyDir named after prefix. Token-resident keys are not written; their label is
// returned instead.
func persistKey(key *crypto.Key, keyDir, prefix string) (string, error) {
	if obj, ok := tokenObject(key); ok {
		return "token object " + obj.Label, nil
	}

	var (
		data []byte
		name string
		err  error
	)
	switch key.Type() {
	case crypto.KeyTypeSecret:
		data, err = key.Secret()
		name = prefix + "-symmetric-key.bin"
	case crypto.KeyTypePrivate:
		data, err = keyparser.ExportPEM(key)
		name = prefix + "-private-key.pem"
	case crypto.KeyTypePublic:
		data, err = keyparser.ExportPEM(key)
		name = prefix + "-public-key.pem"
	default:
		return "", fmt.Errorf("unknown key type %q: %w", key.Type(), crypto.ErrOperationNotSupported)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", key, err)
	}

	path := filepath.Join(keyDir, name)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func tokenObject(key *crypto.Key) (*pkcs11.Object, bool) {
	if key.Owned() {
		return nil, false
	}
	native, err := key.Native()
	if err != nil {
		return nil, false
	}
	obj, ok := native.(*pkcs11.Object)
	return obj, ok
}

func inspectKey(ctx context.Context, set *app.ProviderSet, log logger.Logger, keyFile, algorithmName string) (*keys.KeyInfo, error) {
	parser, err := set.Parser()
	if err != nil {
		return nil, err
	}
	service, err := app.NewKeyInspectionService(parser, set.Registry, log)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Clean(keyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return service.Inspect(ctx, data, algorithmName)
}

// InitKeyCommands registers key generation and inspection commands
func InitKeyCommands(rootCmd *cobra.Command) error {
	handler, err := NewKeyCommandHandler()
	if err != nil {
		return fmt.Errorf("failed to create key command handler: %w", err)
	}

	var generateKeyCmd = &cobra.Command{
		Use:   "generate-key",
		Short: "Generate a key or key pair",
		Run:   handler.GenerateKeyCmd,
	}
	generateKeyCmd.Flags().StringP("algorithm", "", "", "Algorithm name, e.g. AES, RSA, ECDSA, Ed25519")
	generateKeyCmd.Flags().StringP("provider", "", "", "Provider to generate with (default: first provider offering the algorithm)")
	generateKeyCmd.Flags().UintP("key-size", "", 0, "Key size in bits (default: algorithm default)")
	generateKeyCmd.Flags().StringSliceP("purposes", "", nil, "Key purposes: encrypt, decrypt, sign, verify (default: all the algorithm supports)")
	generateKeyCmd.Flags().StringP("key-dir", "", "", "Directory to store generated key files")
	rootCmd.AddCommand(generateKeyCmd)

	var inspectKeyCmd = &cobra.Command{
		Use:   "inspect-key",
		Short: "Describe the key held in a PEM or DER file",
		Run:   handler.InspectKeyCmd,
	}
	inspectKeyCmd.Flags().StringP("key-file", "", "", "Path to the key file")
	inspectKeyCmd.Flags().StringP("algorithm", "", "", "Expected algorithm (default: any)")
	rootCmd.AddCommand(inspectKeyCmd)

	return nil
}
