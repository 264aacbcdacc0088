package cryptoalg

import (
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/sign"
)

// DilithiumProcessor handles ML-DSA (Dilithium) post-quantum signatures.
type DilithiumProcessor interface {
	GenerateKeys() (sign.PublicKey, sign.PrivateKey, error)
	Sign(message []byte, privateKey sign.PrivateKey) ([]byte, error)
	Verify(message, signature []byte, publicKey sign.PublicKey) (bool, error)
	ParsePrivateKey(raw []byte) (sign.PrivateKey, error)
}

// KyberProcessor handles Kyber KEM based hybrid encryption: the KEM shared secret keys an AES-256-GCM seal.
type KyberProcessor interface {
	GenerateKeys() (kem.PublicKey, kem.PrivateKey, error)
	Encrypt(plainText []byte, publicKey kem.PublicKey) ([]byte, error)
	Decrypt(ciphertext []byte, privateKey kem.PrivateKey) ([]byte, error)
	ParsePrivateKey(raw []byte) (kem.PrivateKey, error)
}
