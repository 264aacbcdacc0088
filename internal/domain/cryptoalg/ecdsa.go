package cryptoalg

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"

	"gitlab.com/yawning/secp256k1-voi/secec"
)

// ECDSAProcessor handles elliptic curve (ECDSA) signatures over the NIST curves.
type ECDSAProcessor interface {
	// GenerateKeys generates an ECDSA key pair on the specified elliptic curve.
	GenerateKeys(curve elliptic.Curve) (*ecdsa.PrivateKey, error)

	// Sign creates an ASN.1 DER signature over the digest matching the curve size.
	Sign(message []byte, privateKey *ecdsa.PrivateKey) ([]byte, error)

	// Verify reports whether signature is valid. An invalid signature is not an error.
	Verify(message, signature []byte, publicKey *ecdsa.PublicKey) (bool, error)
}

// Ed25519Processor handles pure Ed25519 signatures.
type Ed25519Processor interface {
	GenerateKeys() (ed25519.PrivateKey, error)
	Sign(message []byte, privateKey ed25519.PrivateKey) ([]byte, error)
	Verify(message, signature []byte, publicKey ed25519.PublicKey) (bool, error)
}

// K256Processor handles secp256k1 ECDSA signatures with compact low-S encoding over SHA-256.
type K256Processor interface {
	GenerateKeys() (*secec.PrivateKey, error)
	Sign(message []byte, privateKey *secec.PrivateKey) ([]byte, error)
	Verify(message, signature []byte, publicKey *secec.PublicKey) (bool, error)
}
