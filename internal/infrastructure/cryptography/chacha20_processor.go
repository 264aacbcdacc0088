package cryptography

import (
	"crypto/rand"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"golang.org/x/crypto/chacha20poly1305"
)

type chacha20Processor struct {
	logger logger.Logger
}

// NewChaCha20Poly1305Processor creates a ChaCha20-Poly1305 processor. Ciphertexts use the IV framing with the
// 12-byte nonce in place of the IV.
func NewChaCha20Poly1305Processor(logger logger.Logger) (cryptoalg.AEADProcessor, error) {
	return &chacha20Processor{logger: logger}, nil
}

func (c *chacha20Processor) GenerateKey(heap *securemem.Heap) (*securemem.Buffer, error) {
	buf, err := heap.Allocate(chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate ChaCha20-Poly1305 key: %w", err)
	}
	if _, err := rand.Read(buf.Bytes()); err != nil {
		buf.Free()
		return nil, fmt.Errorf("failed to generate ChaCha20-Poly1305 key: %w", err)
	}

	c.logger.Info("Generated ChaCha20-Poly1305 key")
	return buf, nil
}

func (c *chacha20Processor) Encrypt(data, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}
	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	c.logger.Info("ChaCha20-Poly1305 encryption succeeded")
	return FrameIV(nonce, aead.Seal(nil, nonce, data, nil)), nil
}

func (c *chacha20Processor) Decrypt(framed, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}
	nonce, ciphertext, err := SplitIV(framed, aead.NonceSize())
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open ChaCha20-Poly1305 ciphertext: %w", crypto.ErrInvalidCiphertext)
	}

	c.logger.Info("ChaCha20-Poly1305 decryption succeeded")
	return plaintext, nil
}
