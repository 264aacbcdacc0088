package standard

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/cryptography"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"gitlab.com/yawning/secp256k1-voi/secec"
)

// RSA key sizes in bits
var rsaKeySizes = []int{1024, 2048, 3072, 4096}

func bindKey(key *crypto.Key) (*crypto.Key, error) {
	return key, nil
}

func bindCipherKey(key *crypto.Key, _ crypto.BlockMode) (*crypto.Key, error) {
	return key, nil
}

// nativePublic returns the public object a key references.
func nativePublic[T any](key *crypto.Key) (T, error) {
	var zero T
	native, err := key.Native()
	if err != nil {
		return zero, err
	}
	pub, ok := native.(T)
	if !ok {
		return zero, fmt.Errorf("%s key references %T, expected %T: %w", key.Algorithm(), native, zero, crypto.ErrOperationNotSupported)
	}
	return pub, nil
}

func publicKey(name string, spec crypto.GenerationSpec, pub any) (*crypto.Key, error) {
	return crypto.NewNativeKey(crypto.Attributes{
		Algorithm: name,
		Purposes:  keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePublic),
		Format:    crypto.FormatNative,
		Type:      crypto.KeyTypePublic,
		Size:      spec.KeySize,
	}, pub)
}

// sealPair stores priv as PKCS#8 in the secure heap and references pub natively.
func (p *Provider) sealPair(name string, spec crypto.GenerationSpec, priv, pub any) (*crypto.KeyPair, error) {
	private, err := keyparser.SealPrivateKey(p.Heap(), crypto.Attributes{
		Algorithm: name,
		Purposes:  keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePrivate),
		Format:    crypto.FormatPKCS8,
		Type:      crypto.KeyTypePrivate,
		Size:      spec.KeySize,
	}, priv)
	if err != nil {
		return nil, err
	}

	public, err := publicKey(name, spec, pub)
	if err != nil {
		private.Destroy()
		return nil, err
	}
	return &crypto.KeyPair{Public: public, Private: private}, nil
}

func attach(alg *algorithm.Algorithm, keygen algorithm.KeyGeneratorDelegate, sig algorithm.SignatureDelegate, cipher algorithm.CipherDelegate) (*algorithm.Algorithm, error) {
	errs := []error{alg.AttachKeyGenerator(keygen), alg.AttachSignature(sig)}
	if cipher != nil {
		errs = append(errs, alg.AttachCipher(cipher))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return alg, nil
}

func (p *Provider) rsaAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmRSA)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmRSA, crypto.PurposeAll, 2048, rsaKeySizes...).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			priv, err := p.rsa.GenerateKeys(spec.KeySize)
			if err != nil {
				return nil, err
			}
			return p.sealPair(crypto.AlgorithmRSA, spec, priv, &priv.PublicKey)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	cipher, err := algorithm.NewCipherBuilder[*crypto.Key](crypto.AlgorithmRSA).
		Initializer(bindCipherKey).
		Encrypt(func(key *crypto.Key, plaintext []byte) ([]byte, error) {
			pub, err := nativePublic[*rsa.PublicKey](key)
			if err != nil {
				return nil, err
			}
			return p.rsa.Encrypt(plaintext, pub)
		}).
		Decrypt(func(key *crypto.Key, ciphertext []byte) ([]byte, error) {
			priv, err := keyparser.RSAPrivateKey(key)
			if err != nil {
				return nil, err
			}
			return p.rsa.Decrypt(ciphertext, priv)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmRSA).
		Initializer(bindKey).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			priv, err := keyparser.RSAPrivateKey(key)
			if err != nil {
				return nil, err
			}
			return p.rsa.Sign(data, priv)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			pub, err := nativePublic[*rsa.PublicKey](key)
			if err != nil {
				return false, err
			}
			return p.rsa.Verify(data, signature, pub)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return attach(alg, keygen, sig, cipher)
}

func (p *Provider) ecdsaAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmECDSA)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmECDSA, crypto.PurposesSignature, 256, 256, 384, 521).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			curve, err := cryptography.CurveForSize(spec.KeySize)
			if err != nil {
				return nil, err
			}
			priv, err := p.ecdsa.GenerateKeys(curve)
			if err != nil {
				return nil, err
			}
			return p.sealPair(crypto.AlgorithmECDSA, spec, priv, &priv.PublicKey)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmECDSA).
		Initializer(bindKey).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			priv, err := keyparser.ECDSAPrivateKey(key)
			if err != nil {
				return nil, err
			}
			return p.ecdsa.Sign(data, priv)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			pub, err := nativePublic[*ecdsa.PublicKey](key)
			if err != nil {
				return false, err
			}
			return p.ecdsa.Verify(data, signature, pub)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return attach(alg, keygen, sig, nil)
}

func (p *Provider) ed25519Algorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmEd25519)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmEd25519, crypto.PurposesSignature, 256, 256).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			priv, err := p.ed25519.GenerateKeys()
			if err != nil {
				return nil, err
			}
			return p.sealPair(crypto.AlgorithmEd25519, spec, priv, priv.Public())
		}).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmEd25519).
		Initializer(bindKey).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			priv, err := keyparser.Ed25519PrivateKey(key)
			if err != nil {
				return nil, err
			}
			return p.ed25519.Sign(data, priv)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			pub, err := nativePublic[ed25519.PublicKey](key)
			if err != nil {
				return false, err
			}
			return p.ed25519.Verify(data, signature, pub)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return attach(alg, keygen, sig, nil)
}

// k256Algorithm keeps the raw 32-byte scalar in the secure heap since PKCS#8 has no secp256k1 encoding in the
// standard library.
func (p *Provider) k256Algorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmK256)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmK256, crypto.PurposesSignature, 256, 256).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			priv, err := p.k256.GenerateKeys()
			if err != nil {
				return nil, err
			}
			buf, err := p.Heap().AllocateFrom(priv.Bytes())
			if err != nil {
				return nil, fmt.Errorf("failed to store K256 private key: %w", err)
			}
			private, err := crypto.NewSecureKey(crypto.Attributes{
				Algorithm: crypto.AlgorithmK256,
				Purposes:  keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePrivate),
				Format:    crypto.FormatRaw,
				Type:      crypto.KeyTypePrivate,
				Size:      spec.KeySize,
			}, buf)
			if err != nil {
				buf.Free()
				return nil, err
			}
			public, err := publicKey(crypto.AlgorithmK256, spec, priv.PublicKey())
			if err != nil {
				private.Destroy()
				return nil, err
			}
			return &crypto.KeyPair{Public: public, Private: private}, nil
		}).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmK256).
		Initializer(bindKey).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			scalar, err := key.Secret()
			if err != nil {
				return nil, err
			}
			priv, err := secec.NewPrivateKey(scalar)
			if err != nil {
				return nil, fmt.Errorf("failed to decode K256 private key: %w", err)
			}
			return p.k256.Sign(data, priv)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			pub, err := nativePublic[*secec.PublicKey](key)
			if err != nil {
				return false, err
			}
			return p.k256.Verify(data, signature, pub)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return attach(alg, keygen, sig, nil)
}
