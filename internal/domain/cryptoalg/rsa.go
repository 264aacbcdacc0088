package cryptoalg

import "crypto/rsa"

// RSAProcessor handles RSA asymmetric cryptographic operations.
// RSA supports both encryption/decryption AND digital signatures.
type RSAProcessor interface {
	// GenerateKeys generates an RSA key pair with the specified bit size.
	GenerateKeys(keySize int) (*rsa.PrivateKey, error)

	// Encrypt encrypts plaintext using RSA-OAEP with SHA-256, splitting it into chunks that fit the modulus.
	Encrypt(plainText []byte, publicKey *rsa.PublicKey) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(ciphertext []byte, privateKey *rsa.PrivateKey) ([]byte, error)

	// Sign creates a PKCS#1 v1.5 signature over the SHA-256 digest of data.
	Sign(data []byte, privateKey *rsa.PrivateKey) ([]byte, error)

	// Verify reports whether signature is valid. An invalid signature is not an error.
	Verify(data []byte, signature []byte, publicKey *rsa.PublicKey) (bool, error)
}
