package standard

import (
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
)

// symmetricContext binds a secret key and block mode to a cipher session.
type symmetricContext struct {
	key  *crypto.Key
	mode crypto.BlockMode
}

func bindSecretKey(key *crypto.Key, mode crypto.BlockMode) (symmetricContext, error) {
	if key.Type() != crypto.KeyTypeSecret || !key.Owned() {
		return symmetricContext{}, fmt.Errorf("%s cipher needs a secret key, got %s: %w", key.Algorithm(), key.Type(), crypto.ErrOperationNotSupported)
	}
	return symmetricContext{key: key, mode: mode}, nil
}

func keepSpec(spec crypto.GenerationSpec) (crypto.GenerationSpec, error) {
	return spec, nil
}

func secretKey(name string, spec crypto.GenerationSpec, buf *securemem.Buffer) (*crypto.Key, error) {
	key, err := crypto.NewSecureKey(crypto.Attributes{
		Algorithm: name,
		Purposes:  spec.Purposes,
		Format:    crypto.FormatRaw,
		Type:      crypto.KeyTypeSecret,
		Size:      spec.KeySize,
	}, buf)
	if err != nil {
		buf.Free()
		return nil, err
	}
	return key, nil
}

func (p *Provider) aesAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmAES,
		algorithm.WithBlockModes(crypto.BlockModeCBC, crypto.BlockModeCBC, crypto.BlockModeGCM, crypto.BlockModeCTR))
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmAES, crypto.PurposesSymmetric,
		crypto.AESKeySize256, crypto.AESKeySize128, crypto.AESKeySize192, crypto.AESKeySize256).
		Initializer(keepSpec).
		GenerateKey(func(spec crypto.GenerationSpec) (*crypto.Key, error) {
			buf, err := p.aes.GenerateKey(p.Heap(), spec.KeySize)
			if err != nil {
				return nil, err
			}
			return secretKey(crypto.AlgorithmAES, spec, buf)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	cipher, err := algorithm.NewCipherBuilder[symmetricContext](crypto.AlgorithmAES).
		Initializer(bindSecretKey).
		Encrypt(func(ctx symmetricContext, plaintext []byte) ([]byte, error) {
			secret, err := ctx.key.Secret()
			if err != nil {
				return nil, err
			}
			return p.aes.Encrypt(plaintext, secret, ctx.mode)
		}).
		Decrypt(func(ctx symmetricContext, ciphertext []byte) ([]byte, error) {
			secret, err := ctx.key.Secret()
			if err != nil {
				return nil, err
			}
			return p.aes.Decrypt(ciphertext, secret, ctx.mode)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	if err := errors.Join(alg.AttachKeyGenerator(keygen), alg.AttachCipher(cipher)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (p *Provider) chachaAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmChaCha20Poly1305)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmChaCha20Poly1305,
		crypto.PurposesSymmetric, 256, 256).
		Initializer(keepSpec).
		GenerateKey(func(spec crypto.GenerationSpec) (*crypto.Key, error) {
			buf, err := p.chacha.GenerateKey(p.Heap())
			if err != nil {
				return nil, err
			}
			return secretKey(crypto.AlgorithmChaCha20Poly1305, spec, buf)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	cipher, err := algorithm.NewCipherBuilder[symmetricContext](crypto.AlgorithmChaCha20Poly1305).
		Initializer(bindSecretKey).
		Encrypt(func(ctx symmetricContext, plaintext []byte) ([]byte, error) {
			secret, err := ctx.key.Secret()
			if err != nil {
				return nil, err
			}
			return p.chacha.Encrypt(plaintext, secret)
		}).
		Decrypt(func(ctx symmetricContext, ciphertext []byte) ([]byte, error) {
			secret, err := ctx.key.Secret()
			if err != nil {
				return nil, err
			}
			return p.chacha.Decrypt(ciphertext, secret)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	if err := errors.Join(alg.AttachKeyGenerator(keygen), alg.AttachCipher(cipher)); err != nil {
		return nil, err
	}
	return alg, nil
}
