package cryptography

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
)

// aesProcessor struct that implements the AESProcessor interface
type aesProcessor struct {
	logger logger.Logger
}

// NewAESProcessor creates and returns a new instance of aesProcessor
func NewAESProcessor(logger logger.Logger) (cryptoalg.AESProcessor, error) {
	return &aesProcessor{
		logger: logger,
	}, nil
}

// GenerateKey fills a new secure buffer with a random AES key.
func (a *aesProcessor) GenerateKey(heap *securemem.Heap, keySize int) (*securemem.Buffer, error) {
	switch keySize {
	case crypto.AESKeySize128, crypto.AESKeySize192, crypto.AESKeySize256:
	default:
		return nil, fmt.Errorf("invalid AES key size %d: %w", keySize, crypto.ErrUnsupportedKeySize)
	}

	buf, err := heap.Allocate(keySize / 8)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate AES key: %w", err)
	}
	if _, err := rand.Read(buf.Bytes()); err != nil {
		buf.Free()
		return nil, fmt.Errorf("failed to generate AES key: %w", err)
	}

	a.logger.Info(fmt.Sprintf("Generated AES-%d key", keySize))
	return buf, nil
}

// Encrypt encrypts data with a fresh IV and returns the framed result.
func (a *aesProcessor) Encrypt(data, key []byte, mode crypto.BlockMode) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	var iv, ciphertext []byte
	switch mode {
	case crypto.BlockModeCBC:
		iv, err = randomBytes(aes.BlockSize)
		if err != nil {
			return nil, err
		}
		padded := pkcs7Pad(data, aes.BlockSize)
		ciphertext = make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	case crypto.BlockModeCTR:
		iv, err = randomBytes(aes.BlockSize)
		if err != nil {
			return nil, err
		}
		ciphertext = make([]byte, len(data))
		cipher.NewCTR(block, iv).XORKeyStream(ciphertext, data)
	case crypto.BlockModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		iv, err = randomBytes(gcm.NonceSize())
		if err != nil {
			return nil, err
		}
		ciphertext = gcm.Seal(nil, iv, data, nil)
	default:
		return nil, fmt.Errorf("AES block mode %q: %w", mode, crypto.ErrUnsupportedBlockMode)
	}

	a.logger.Info(fmt.Sprintf("AES-%s encryption succeeded", mode))
	return FrameIV(iv, ciphertext), nil
}

// Decrypt splits the IV frame and decrypts the remainder.
func (a *aesProcessor) Decrypt(framed, key []byte, mode crypto.BlockMode) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	var plaintext []byte
	switch mode {
	case crypto.BlockModeCBC:
		iv, ciphertext, err := SplitIV(framed, aes.BlockSize)
		if err != nil {
			return nil, err
		}
		if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
			return nil, fmt.Errorf("ciphertext is not a multiple of the block size: %w", crypto.ErrInvalidCiphertext)
		}
		padded := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
		if plaintext, err = pkcs7Unpad(padded, aes.BlockSize); err != nil {
			return nil, err
		}
	case crypto.BlockModeCTR:
		iv, ciphertext, err := SplitIV(framed, aes.BlockSize)
		if err != nil {
			return nil, err
		}
		plaintext = make([]byte, len(ciphertext))
		cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)
	case crypto.BlockModeGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		iv, ciphertext, err := SplitIV(framed, gcm.NonceSize())
		if err != nil {
			return nil, err
		}
		if plaintext, err = gcm.Open(nil, iv, ciphertext, nil); err != nil {
			return nil, fmt.Errorf("failed to open GCM ciphertext: %w", crypto.ErrInvalidCiphertext)
		}
	default:
		return nil, fmt.Errorf("AES block mode %q: %w", mode, crypto.ErrUnsupportedBlockMode)
	}

	a.logger.Info(fmt.Sprintf("AES-%s decryption succeeded", mode))
	return plaintext, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padding), data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty padded data: %w", crypto.ErrInvalidCiphertext)
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding: %w", crypto.ErrInvalidCiphertext)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("invalid padding: %w", crypto.ErrInvalidCiphertext)
		}
	}
	return data[:len(data)-padding], nil
}
