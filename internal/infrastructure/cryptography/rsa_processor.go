package cryptography

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"

	cryptoDomain "github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
)

// rsaProcessor struct that implements the RSAProcessor interface
type rsaProcessor struct {
	logger logger.Logger
}

// NewRSAProcessor creates and returns a new instance of rsaProcessor
func NewRSAProcessor(logger logger.Logger) (cryptoalg.RSAProcessor, error) {
	return &rsaProcessor{
		logger: logger,
	}, nil
}

// GenerateKeys generates an RSA key pair with the specified bit size.
func (r *rsaProcessor) GenerateKeys(keySize int) (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA keys: %w", err)
	}
	r.logger.Info(fmt.Sprintf("Generated RSA-%d key pair", keySize))
	return privateKey, nil
}

// oaepChunkSize is the largest plaintext OAEP-SHA256 accepts for a modulus of k bytes.
func oaepChunkSize(k int) int {
	return k - 2*sha256.Size - 2
}

// Encrypt encrypts plaintext using RSA-OAEP with SHA-256, one modulus-sized block per chunk.
func (r *rsaProcessor) Encrypt(plainText []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, errors.New("public key cannot be nil")
	}

	maxSize := oaepChunkSize(publicKey.Size())
	if maxSize <= 0 {
		return nil, fmt.Errorf("RSA modulus of %d bytes is too small for OAEP-SHA256: %w", publicKey.Size(), cryptoDomain.ErrUnsupportedKeySize)
	}

	encryptedData := make([]byte, 0, (len(plainText)/maxSize+1)*publicKey.Size())
	for len(plainText) > 0 {
		chunkSize := min(maxSize, len(plainText))

		encryptedChunk, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, plainText[:chunkSize], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt data: %w", err)
		}
		encryptedData = append(encryptedData, encryptedChunk...)
		plainText = plainText[chunkSize:]
	}

	r.logger.Info("RSA encryption succeeded")
	return encryptedData, nil
}

// Decrypt decrypts RSA-OAEP ciphertext using the private key.
func (r *rsaProcessor) Decrypt(ciphertext []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}

	blockSize := privateKey.Size()
	if len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d: %w", len(ciphertext), blockSize, cryptoDomain.ErrInvalidCiphertext)
	}

	decryptedData := make([]byte, 0, len(ciphertext))
	for len(ciphertext) > 0 {
		decryptedChunk, err := rsa.DecryptOAEP(sha256.New(), nil, privateKey, ciphertext[:blockSize], nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt data: %w", cryptoDomain.ErrInvalidCiphertext)
		}
		decryptedData = append(decryptedData, decryptedChunk...)
		ciphertext = ciphertext[blockSize:]
	}

	r.logger.Info("RSA decryption succeeded")
	return decryptedData, nil
}

// Sign creates a PKCS#1 v1.5 signature over the SHA-256 digest of data.
func (r *rsaProcessor) Sign(data []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}

	hashed := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hashed[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign data: %w", err)
	}

	r.logger.Info("RSA signing succeeded")
	return signature, nil
}

// Verify verifies a PKCS#1 v1.5 signature using the public key.
func (r *rsaProcessor) Verify(data []byte, signature []byte, publicKey *rsa.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, fmt.Errorf("public key cannot be nil")
	}

	hashed := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hashed[:], signature); err != nil {
		r.logger.Info("RSA signature rejected")
		return false, nil
	}

	r.logger.Info("RSA signature verified successfully")
	return true, nil
}
