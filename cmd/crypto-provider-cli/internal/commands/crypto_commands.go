package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MGTheTrain/crypto-providers/internal/app"
	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"

	"github.com/spf13/cobra"
)

// OperationRequest selects the algorithm and key a cipher or signature command runs with
type OperationRequest struct {
	Algorithm string
	Provider  string
	BlockMode string
	Key       keySource
}

// CryptoCommandHandler encrypts, decrypts, signs and verifies files
type CryptoCommandHandler struct {
	logger logger.Logger
}

// NewCryptoCommandHandler initializes a CryptoCommandHandler with a configured logger
func NewCryptoCommandHandler() (*CryptoCommandHandler, error) {
	loggerInstance, err := setupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return &CryptoCommandHandler{logger: loggerInstance}, nil
}

func (h *CryptoCommandHandler) request(cmd *cobra.Command) (*OperationRequest, bool) {
	var req OperationRequest
	var err error
	if req.Algorithm, err = cmd.Flags().GetString("algorithm"); err != nil {
		h.logger.Error("invalid algorithm flag ", err)
		return nil, false
	}
	if req.Provider, err = cmd.Flags().GetString("provider"); err != nil {
		h.logger.Error("invalid provider flag ", err)
		return nil, false
	}
	if req.Key.File, err = cmd.Flags().GetString("key-file"); err != nil {
		h.logger.Error("invalid key-file flag ", err)
		return nil, false
	}
	if req.Key.Label, err = cmd.Flags().GetString("key-label"); err != nil {
		h.logger.Error("invalid key-label flag ", err)
		return nil, false
	}
	if cmd.Flags().Lookup("block-mode") != nil {
		if req.BlockMode, err = cmd.Flags().GetString("block-mode"); err != nil {
			h.logger.Error("invalid block-mode flag ", err)
			return nil, false
		}
	}
	return &req, true
}

// EncryptCmd encrypts the input file and writes the framed ciphertext to the output file
func (h *CryptoCommandHandler) EncryptCmd(cmd *cobra.Command, _ []string) {
	h.transform(cmd, "Encrypted", encryptData)
}

// DecryptCmd decrypts the input file and writes the plaintext to the output file
func (h *CryptoCommandHandler) DecryptCmd(cmd *cobra.Command, _ []string) {
	h.transform(cmd, "Decrypted", decryptData)
}

// SignCmd signs the input file and writes the signature to the output file
func (h *CryptoCommandHandler) SignCmd(cmd *cobra.Command, _ []string) {
	h.transform(cmd, "Signature of", signData)
}

func (h *CryptoCommandHandler) transform(cmd *cobra.Command, verb string, op func(*app.ProviderSet, *OperationRequest, []byte) ([]byte, error)) {
	req, ok := h.request(cmd)
	if !ok {
		return
	}
	inputFilePath, err := cmd.Flags().GetString("input-file")
	if err != nil {
		h.logger.Error("invalid input-file flag ", err)
		return
	}
	outputFilePath, err := cmd.Flags().GetString("output-file")
	if err != nil {
		h.logger.Error("invalid output-file flag ", err)
		return
	}

	input, err := os.ReadFile(filepath.Clean(inputFilePath))
	if err != nil {
		h.logger.Error(err)
		return
	}

	set, err := setupProviders(cmd, h.logger)
	if err != nil {
		h.logger.Error(err)
		return
	}
	defer set.Close()

	output, err := op(set, req, input)
	if err != nil {
		h.logger.Error(err)
		return
	}
	if err := writeFile(outputFilePath, output); err != nil {
		h.logger.Error(err)
		return
	}
	h.logger.Info(fmt.Sprintf("%s %s saved to %s", verb, inputFilePath, outputFilePath))
}

// VerifyCmd checks a signature over the input file
func (h *CryptoCommandHandler) VerifyCmd(cmd *cobra.Command, _ []string) {
	req, ok := h.request(cmd)
	if !ok {
		return
	}
	inputFilePath, err := cmd.Flags().GetString("input-file")
	if err != nil {
		h.logger.Error("invalid input-file flag ", err)
		return
	}
	signatureFilePath, err := cmd.Flags().GetString("signature-file")
	if err != nil {
		h.logger.Error("invalid signature-file flag ", err)
		return
	}

	data, err := os.ReadFile(filepath.Clean(inputFilePath))
	if err != nil {
		h.logger.Error(err)
		return
	}
	signature, err := os.ReadFile(filepath.Clean(signatureFilePath))
	if err != nil {
		h.logger.Error(err)
		return
	}

	set, err := setupProviders(cmd, h.logger)
	if err != nil {
		h.logger.Error(err)
		return
	}
	defer set.Close()

	valid, err := verifyData(set, req, signature, data)
	if err != nil {
		h.logger.Error(err)
		return
	}
	if !valid {
		h.logger.Warn(fmt.Sprintf("Signature %s does not match %s", signatureFilePath, inputFilePath))
		return
	}
	h.logger.Info(fmt.Sprintf("Signature %s is valid for %s", signatureFilePath, inputFilePath))
}

// operationKey resolves the algorithm of req and opens its key for purpose.
func operationKey(set *app.ProviderSet, req *OperationRequest, purpose crypto.Purpose) (*algorithm.Algorithm, *crypto.Key, error) {
	alg, err := findAlgorithm(set, req.Provider, req.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	keyType := crypto.KeyTypePublic
	if info, ok := alg.KeyGeneratorInfo(); ok && !info.Asymmetric {
		keyType = crypto.KeyTypeSecret
	} else if purpose == crypto.PurposeDecrypt || purpose == crypto.PurposeSigning {
		keyType = crypto.KeyTypePrivate
	}

	key, err := loadKey(set, alg, req.Key, keyType, purpose)
	if err != nil {
		return nil, nil, err
	}
	return alg, key, nil
}

func openCipher(set *app.ProviderSet, req *OperationRequest, purpose crypto.Purpose) (*algorithm.Cipher, *crypto.Key, error) {
	alg, key, err := operationKey(set, req, purpose)
	if err != nil {
		return nil, nil, err
	}
	mode := crypto.BlockMode(req.BlockMode)
	if mode == crypto.BlockModeNone {
		mode = alg.DefaultBlockMode()
	}
	cipher, err := alg.NewCipher(key, mode)
	if err != nil {
		key.Destroy()
		return nil, nil, err
	}
	return cipher, key, nil
}

func encryptData(set *app.ProviderSet, req *OperationRequest, plaintext []byte) ([]byte, error) {
	cipher, key, err := openCipher(set, req, crypto.PurposeEncrypt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	defer cipher.Close()

	return cipher.Encrypt(plaintext)
}

func decryptData(set *app.ProviderSet, req *OperationRequest, ciphertext []byte) ([]byte, error) {
	cipher, key, err := openCipher(set, req, crypto.PurposeDecrypt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	defer cipher.Close()

	return cipher.Decrypt(ciphertext)
}

func signData(set *app.ProviderSet, req *OperationRequest, data []byte) ([]byte, error) {
	alg, key, err := operationKey(set, req, crypto.PurposeSigning)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	sig, err := alg.NewSignature()
	if err != nil {
		return nil, err
	}
	defer sig.Close()

	if err := sig.InitSign(key); err != nil {
		return nil, err
	}
	return sig.Sign(data)
}

func verifyData(set *app.ProviderSet, req *OperationRequest, signature, data []byte) (bool, error) {
	alg, key, err := operationKey(set, req, crypto.PurposeVerify)
	if err != nil {
		return false, err
	}
	defer key.Destroy()

	sig, err := alg.NewSignature()
	if err != nil {
		return false, err
	}
	defer sig.Close()

	if err := sig.InitVerify(key); err != nil {
		return false, err
	}
	return sig.Verify(signature, data)
}

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("algorithm", "", "", "Algorithm name")
	cmd.Flags().StringP("provider", "", "", "Provider to use (default: first provider offering the algorithm)")
	cmd.Flags().StringP("key-file", "", "", "Path to the key file")
	cmd.Flags().StringP("key-label", "", "", "Label of a token object, requires the pkcs11 provider")
}

// InitCryptoCommands registers cipher and signature commands
func InitCryptoCommands(rootCmd *cobra.Command) error {
	handler, err := NewCryptoCommandHandler()
	if err != nil {
		return fmt.Errorf("failed to create crypto command handler: %w", err)
	}

	var encryptCmd = &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file",
		Run:   handler.EncryptCmd,
	}
	addKeyFlags(encryptCmd)
	encryptCmd.Flags().StringP("block-mode", "", "", "Block mode, e.g. GCM, CBC, CTR (default: algorithm default)")
	encryptCmd.Flags().StringP("input-file", "", "", "Path to input file that needs to be encrypted")
	encryptCmd.Flags().StringP("output-file", "", "", "Path to encrypted output file")
	rootCmd.AddCommand(encryptCmd)

	var decryptCmd = &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a file",
		Run:   handler.DecryptCmd,
	}
	addKeyFlags(decryptCmd)
	decryptCmd.Flags().StringP("block-mode", "", "", "Block mode the file was encrypted with (default: algorithm default)")
	decryptCmd.Flags().StringP("input-file", "", "", "Input encrypted file path")
	decryptCmd.Flags().StringP("output-file", "", "", "Path to decrypted output file")
	rootCmd.AddCommand(decryptCmd)

	var signCmd = &cobra.Command{
		Use:   "sign",
		Short: "Sign a file",
		Run:   handler.SignCmd,
	}
	addKeyFlags(signCmd)
	signCmd.Flags().StringP("input-file", "", "", "Path to the file to sign")
	signCmd.Flags().StringP("output-file", "", "", "Path to the signature output file")
	rootCmd.AddCommand(signCmd)

	var verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature of a file",
		Run:   handler.VerifyCmd,
	}
	addKeyFlags(verifyCmd)
	verifyCmd.Flags().StringP("input-file", "", "", "Path to the signed file")
	verifyCmd.Flags().StringP("signature-file", "", "", "Path to the signature file")
	rootCmd.AddCommand(verifyCmd)

	return nil
}
