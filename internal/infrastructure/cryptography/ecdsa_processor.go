package cryptography

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/minio/sha256-simd"
	"gitlab.com/yawning/secp256k1-voi/secec"
)

// ecdsaProcessor struct that implements the ECDSAProcessor interface
type ecdsaProcessor struct {
	logger logger.Logger
}

// NewECDSAProcessor creates and returns a new instance of ecdsaProcessor
func NewECDSAProcessor(logger logger.Logger) (cryptoalg.ECDSAProcessor, error) {
	return &ecdsaProcessor{
		logger: logger,
	}, nil
}

// CurveForSize maps a key size in bits to its NIST curve.
func CurveForSize(bits int) (elliptic.Curve, error) {
	switch bits {
	case 256:
		return elliptic.P256(), nil
	case 384:
		return elliptic.P384(), nil
	case 521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unsupported curve size %d", bits)
	}
}

// digestForCurve hashes message with the function matching the curve strength.
func digestForCurve(curve elliptic.Curve, message []byte) []byte {
	switch curve.Params().BitSize {
	case 384:
		sum := sha512.Sum384(message)
		return sum[:]
	case 521:
		sum := sha512.Sum512(message)
		return sum[:]
	default:
		sum := sha256.Sum256(message)
		return sum[:]
	}
}

// GenerateKeys generates an ECDSA key pair on the specified elliptic curve.
func (e *ecdsaProcessor) GenerateKeys(curve elliptic.Curve) (*ecdsa.PrivateKey, error) {
	privateKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key pair: %w", err)
	}

	e.logger.Info(fmt.Sprintf("Generated ECDSA %s key pair", curve.Params().Name))
	return privateKey, nil
}

// Sign creates an ASN.1 signature of the message digest.
func (e *ecdsaProcessor) Sign(message []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key cannot be nil")
	}

	signature, err := ecdsa.SignASN1(rand.Reader, privateKey, digestForCurve(privateKey.Curve, message))
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	e.logger.Info("ECDSA signing succeeded")
	return signature, nil
}

// Verify verifies an ASN.1 ECDSA signature using the public key.
func (e *ecdsaProcessor) Verify(message, signature []byte, publicKey *ecdsa.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, errors.New("public key cannot be nil")
	}

	valid := ecdsa.VerifyASN1(publicKey, digestForCurve(publicKey.Curve, message), signature)
	if valid {
		e.logger.Info("ECDSA signature verified successfully")
	} else {
		e.logger.Info("ECDSA signature rejected")
	}
	return valid, nil
}

type ed25519Processor struct {
	logger logger.Logger
}

// NewEd25519Processor creates an Ed25519 processor.
func NewEd25519Processor(logger logger.Logger) (cryptoalg.Ed25519Processor, error) {
	return &ed25519Processor{logger: logger}, nil
}

func (e *ed25519Processor) GenerateKeys() (ed25519.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Ed25519 key pair: %w", err)
	}

	e.logger.Info("Generated Ed25519 key pair")
	return privateKey, nil
}

func (e *ed25519Processor) Sign(message []byte, privateKey ed25519.PrivateKey) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid Ed25519 private key length %d", len(privateKey))
	}

	e.logger.Info("Ed25519 signing succeeded")
	return ed25519.Sign(privateKey, message), nil
}

func (e *ed25519Processor) Verify(message, signature []byte, publicKey ed25519.PublicKey) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid Ed25519 public key length %d", len(publicKey))
	}
	return ed25519.Verify(publicKey, message, signature), nil
}

// k256Options signs and verifies SHA-256 digests with [R | S] encoding, rejecting high-S signatures.
var k256Options = &secec.ECDSAOptions{
	Hash:            crypto.SHA256,
	Encoding:        secec.EncodingCompact,
	RejectMalleable: true,
}

type k256Processor struct {
	logger logger.Logger
}

// NewK256Processor creates a secp256k1 processor.
func NewK256Processor(logger logger.Logger) (cryptoalg.K256Processor, error) {
	return &k256Processor{logger: logger}, nil
}

func (k *k256Processor) GenerateKeys() (*secec.PrivateKey, error) {
	privateKey, err := secec.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate K-256 key pair: %w", err)
	}

	k.logger.Info("Generated K-256 key pair")
	return privateKey, nil
}

func (k *k256Processor) Sign(message []byte, privateKey *secec.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key cannot be nil")
	}

	hash := sha256.Sum256(message)
	signature, err := privateKey.Sign(rand.Reader, hash[:], k256Options)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}

	k.logger.Info("K-256 signing succeeded")
	return signature, nil
}

func (k *k256Processor) Verify(message, signature []byte, publicKey *secec.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, errors.New("public key cannot be nil")
	}

	hash := sha256.Sum256(message)
	return publicKey.Verify(hash[:], signature, k256Options), nil
}
