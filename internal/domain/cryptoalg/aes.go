package cryptoalg

import (
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
)

// AESProcessor handles AES symmetric encryption operations.
// Ciphertexts carry their IV using the length-prefixed framing of the cryptography package.
type AESProcessor interface {
	// GenerateKey fills a new secure buffer with a random key of keySize bits (128, 192 or 256).
	GenerateKey(heap *securemem.Heap, keySize int) (*securemem.Buffer, error)

	// Encrypt encrypts data with a fresh random IV using the given block mode.
	Encrypt(data, key []byte, mode crypto.BlockMode) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(ciphertext, key []byte, mode crypto.BlockMode) ([]byte, error)
}

// AEADProcessor handles a fixed-key-size authenticated cipher such as ChaCha20-Poly1305.
type AEADProcessor interface {
	GenerateKey(heap *securemem.Heap) (*securemem.Buffer, error)
	Encrypt(data, key []byte) ([]byte, error)
	Decrypt(ciphertext, key []byte) ([]byte, error)
}
