package cryptography

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	cryptoDomain "github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/awnumar/memguard"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

type dilithiumProcessor struct {
	logger logger.Logger
	scheme sign.Scheme
}

// NewDilithiumProcessor creates an ML-DSA-65 processor.
func NewDilithiumProcessor(logger logger.Logger) (cryptoalg.DilithiumProcessor, error) {
	return &dilithiumProcessor{logger: logger, scheme: mldsa65.Scheme()}, nil
}

func (d *dilithiumProcessor) GenerateKeys() (sign.PublicKey, sign.PrivateKey, error) {
	pk, sk, err := d.scheme.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate %s key pair: %w", d.scheme.Name(), err)
	}

	d.logger.Info(fmt.Sprintf("Generated %s key pair", d.scheme.Name()))
	return pk, sk, nil
}

func (d *dilithiumProcessor) Sign(message []byte, privateKey sign.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if privateKey.Scheme().Name() != d.scheme.Name() {
		return nil, fmt.Errorf("private key belongs to %s, expected %s", privateKey.Scheme().Name(), d.scheme.Name())
	}

	d.logger.Info(fmt.Sprintf("%s signing succeeded", d.scheme.Name()))
	return d.scheme.Sign(privateKey, message, nil), nil
}

func (d *dilithiumProcessor) Verify(message, signature []byte, publicKey sign.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, fmt.Errorf("public key cannot be nil")
	}
	if len(signature) != d.scheme.SignatureSize() {
		return false, nil
	}
	return d.scheme.Verify(publicKey, message, signature, nil), nil
}

func (d *dilithiumProcessor) ParsePrivateKey(raw []byte) (sign.PrivateKey, error) {
	sk, err := d.scheme.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s private key: %w", d.scheme.Name(), err)
	}
	return sk, nil
}

// kemLengthSize is the size of the big-endian KEM ciphertext length prefix.
const kemLengthSize = 4

type kyberProcessor struct {
	logger logger.Logger
	scheme kem.Scheme
}

// NewKyberProcessor creates a Kyber768 processor. Ciphertexts are laid out as
// [4-byte big-endian KEM ciphertext length][KEM ciphertext][IV framed AES-256-GCM ciphertext].
func NewKyberProcessor(logger logger.Logger) (cryptoalg.KyberProcessor, error) {
	return &kyberProcessor{logger: logger, scheme: kyber768.Scheme()}, nil
}

func (k *kyberProcessor) GenerateKeys() (kem.PublicKey, kem.PrivateKey, error) {
	pk, sk, err := k.scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate %s key pair: %w", k.scheme.Name(), err)
	}

	k.logger.Info(fmt.Sprintf("Generated %s key pair", k.scheme.Name()))
	return pk, sk, nil
}

func sharedSecretGCM(secret []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher from shared secret: %w", err)
	}
	return cipher.NewGCM(block)
}

func (k *kyberProcessor) Encrypt(plainText []byte, publicKey kem.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}

	kemCiphertext, secret, err := k.scheme.Encapsulate(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encapsulate: %w", err)
	}
	defer memguard.WipeBytes(secret)

	gcm, err := sharedSecretGCM(secret)
	if err != nil {
		return nil, err
	}
	nonce, err := randomBytes(gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	sealed := FrameIV(nonce, gcm.Seal(nil, nonce, plainText, nil))

	out := make([]byte, kemLengthSize, kemLengthSize+len(kemCiphertext)+len(sealed))
	binary.BigEndian.PutUint32(out, uint32(len(kemCiphertext)))
	out = append(append(out, kemCiphertext...), sealed...)

	k.logger.Info(fmt.Sprintf("%s encryption succeeded", k.scheme.Name()))
	return out, nil
}

func (k *kyberProcessor) Decrypt(ciphertext []byte, privateKey kem.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if len(ciphertext) < kemLengthSize {
		return nil, fmt.Errorf("ciphertext too short: %w", cryptoDomain.ErrInvalidCiphertext)
	}

	kemLen := int(binary.BigEndian.Uint32(ciphertext))
	if kemLen != k.scheme.CiphertextSize() || len(ciphertext) < kemLengthSize+kemLen {
		return nil, fmt.Errorf("invalid KEM ciphertext length %d: %w", kemLen, cryptoDomain.ErrInvalidCiphertext)
	}

	secret, err := k.scheme.Decapsulate(privateKey, ciphertext[kemLengthSize:kemLengthSize+kemLen])
	if err != nil {
		return nil, fmt.Errorf("failed to decapsulate: %w", err)
	}
	defer memguard.WipeBytes(secret)

	gcm, err := sharedSecretGCM(secret)
	if err != nil {
		return nil, err
	}
	nonce, sealed, err := SplitIV(ciphertext[kemLengthSize+kemLen:], gcm.NonceSize())
	if err != nil {
		return nil, err
	}
	plainText, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ciphertext: %w", k.scheme.Name(), cryptoDomain.ErrInvalidCiphertext)
	}

	k.logger.Info(fmt.Sprintf("%s decryption succeeded", k.scheme.Name()))
	return plainText, nil
}

func (k *kyberProcessor) ParsePrivateKey(raw []byte) (kem.PrivateKey, error) {
	sk, err := k.scheme.UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s private key: %w", k.scheme.Name(), err)
	}
	return sk, nil
}
