package keyparser

import (
	stdcrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding"
	"encoding/pem"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/minio/sha256-simd"
	"github.com/mr-tron/base58"
	"gitlab.com/yawning/secp256k1-voi/secec"
)

// SealPrivateKey marshals priv as PKCS#8 straight into the secure heap and wraps it in an owning key.
func SealPrivateKey(heap *securemem.Heap, attrs crypto.Attributes, priv any) (*crypto.Key, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s private key: %w", attrs.Algorithm, err)
	}
	buf, err := heap.AllocateFrom(der)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s private key: %w", attrs.Algorithm, err)
	}

	key, err := crypto.NewSecureKey(attrs, buf)
	if err != nil {
		buf.Free()
		return nil, err
	}
	return key, nil
}

// OpenPrivateKey decodes the PKCS#8 material of a key created by SealPrivateKey or the parser.
func OpenPrivateKey(key *crypto.Key) (any, error) {
	if key.Type() != crypto.KeyTypePrivate {
		return nil, fmt.Errorf("%s is not a private key: %w", key, crypto.ErrOperationNotSupported)
	}
	der, err := key.Secret()
	if err != nil {
		return nil, err
	}
	priv, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s private key: %w", key.Algorithm(), err)
	}
	return priv, nil
}

// RSAPrivateKey opens key and asserts it holds RSA material.
func RSAPrivateKey(key *crypto.Key) (*rsa.PrivateKey, error) {
	priv, err := OpenPrivateKey(key)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, &crypto.AlgorithmMismatchError{Expected: crypto.AlgorithmRSA, Actual: key.Algorithm()}
	}
	return rsaKey, nil
}

// ECDSAPrivateKey opens key and asserts it holds ECDSA material.
func ECDSAPrivateKey(key *crypto.Key) (*ecdsa.PrivateKey, error) {
	priv, err := OpenPrivateKey(key)
	if err != nil {
		return nil, err
	}
	ecKey, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, &crypto.AlgorithmMismatchError{Expected: crypto.AlgorithmECDSA, Actual: key.Algorithm()}
	}
	return ecKey, nil
}

// Ed25519PrivateKey opens key and asserts it holds Ed25519 material.
func Ed25519PrivateKey(key *crypto.Key) (ed25519.PrivateKey, error) {
	priv, err := OpenPrivateKey(key)
	if err != nil {
		return nil, err
	}
	edKey, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, &crypto.AlgorithmMismatchError{Expected: crypto.AlgorithmEd25519, Actual: key.Algorithm()}
	}
	return edKey, nil
}

// ExportPEM encodes a private key as PKCS#8 "PRIVATE KEY" and a public key as PKIX "PUBLIC KEY".
func ExportPEM(key *crypto.Key) ([]byte, error) {
	switch key.Type() {
	case crypto.KeyTypePrivate:
		if key.Algorithm() == crypto.AlgorithmK256 {
			break
		}
		der, err := key.Secret()
		if err != nil {
			return nil, err
		}
		if _, err := x509.ParsePKCS8PrivateKey(der); err != nil {
			return nil, fmt.Errorf("%s private key is not PKCS#8 encoded: %w", key.Algorithm(), crypto.ErrOperationNotSupported)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
	case crypto.KeyTypePublic:
		pub, err := key.Native()
		if err != nil {
			return nil, err
		}
		der, err := x509.MarshalPKIXPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("%s public key cannot be exported: %w", key.Algorithm(), crypto.ErrOperationNotSupported)
		}
		return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
	}
	return nil, fmt.Errorf("export of %s: %w", key, crypto.ErrOperationNotSupported)
}

// Fingerprint returns the base58 SHA-256 digest of the public encoding of key. For a private key the matching
// public key is used, so both halves of a pair share a fingerprint. Secret keys have none.
func Fingerprint(key *crypto.Key) (string, error) {
	pub, err := publicEncoding(key)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(pub)
	return base58.Encode(sum[:]), nil
}

func publicEncoding(key *crypto.Key) ([]byte, error) {
	switch key.Type() {
	case crypto.KeyTypePublic:
		native, err := key.Native()
		if err != nil {
			return nil, err
		}
		return encodePublic(native)
	case crypto.KeyTypePrivate:
		if key.Algorithm() == crypto.AlgorithmK256 {
			scalar, err := key.Secret()
			if err != nil {
				return nil, err
			}
			priv, err := secec.NewPrivateKey(scalar)
			if err != nil {
				return nil, fmt.Errorf("failed to decode K256 private key: %w", err)
			}
			return priv.PublicKey().CompressedBytes(), nil
		}
		priv, err := OpenPrivateKey(key)
		if err != nil {
			return nil, err
		}
		signer, ok := priv.(stdcrypto.Signer)
		if !ok {
			return nil, fmt.Errorf("fingerprint of %s: %w", key, crypto.ErrOperationNotSupported)
		}
		return encodePublic(signer.Public())
	}
	return nil, fmt.Errorf("fingerprint of %s: %w", key, crypto.ErrOperationNotSupported)
}

func encodePublic(pub any) ([]byte, error) {
	switch k := pub.(type) {
	case *secec.PublicKey:
		return k.CompressedBytes(), nil
	case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
		return x509.MarshalPKIXPublicKey(pub)
	case encoding.BinaryMarshaler:
		return k.MarshalBinary()
	default:
		return nil, fmt.Errorf("failed to encode %T public key: %w", pub, crypto.ErrOperationNotSupported)
	}
}
