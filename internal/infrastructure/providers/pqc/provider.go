package pqc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/cryptography"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/sign"
)

// Provider identity
const (
	ProviderName = "pqc"
	Version      = "1.0.0"
)

// Provider registers post-quantum algorithms. Private keys are kept in their binary encoding in the secure heap.
type Provider struct {
	logger    logger.Logger
	sub       *securemem.Subsystem
	dilithium cryptoalg.DilithiumProcessor
	kyber     cryptoalg.KyberProcessor

	mu   sync.Mutex
	heap *securemem.Heap
}

var _ provider.Provider = (*Provider)(nil)

// NewProvider creates the provider on the process-wide secure heap.
func NewProvider(logger logger.Logger) (*Provider, error) {
	return NewProviderWithHeap(securemem.Default(), logger)
}

// NewProviderWithHeap creates the provider on an explicit secure heap scope.
func NewProviderWithHeap(sub *securemem.Subsystem, logger logger.Logger) (*Provider, error) {
	dilithium, err := cryptography.NewDilithiumProcessor(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Dilithium processor: %w", err)
	}
	kyber, err := cryptography.NewKyberProcessor(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kyber processor: %w", err)
	}
	return &Provider{logger: logger, sub: sub, dilithium: dilithium, kyber: kyber}, nil
}

func (p *Provider) Name() string        { return ProviderName }
func (p *Provider) Version() string     { return Version }
func (p *Provider) Description() string { return "Post-quantum algorithms backed by cloudflare/circl" }

// Initialize opens the secure heap and registers Dilithium and Kyber.
func (p *Provider) Initialize(r provider.Registrar) error {
	p.mu.Lock()
	if p.heap != nil {
		p.mu.Unlock()
		return &crypto.ConfigurationError{Component: ProviderName, Reason: "provider is already initialized"}
	}
	p.heap = p.sub.Open()
	p.mu.Unlock()

	for _, assemble := range []func() (*algorithm.Algorithm, error){p.dilithiumAlgorithm, p.kyberAlgorithm} {
		alg, err := assemble()
		if err != nil {
			return err
		}
		if err := r.Register(alg); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the secure heap handle.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.heap == nil {
		return nil
	}
	return p.heap.Close()
}

func (p *Provider) secureHeap() *securemem.Heap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

// sealPair moves the private key encoding into the secure heap and references the public key natively.
func (p *Provider) sealPair(name string, spec crypto.GenerationSpec, priv binaryMarshaler, pub any) (*crypto.KeyPair, error) {
	raw, err := priv.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s private key: %w", name, err)
	}
	buf, err := p.secureHeap().AllocateFrom(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s private key: %w", name, err)
	}

	private, err := crypto.NewSecureKey(crypto.Attributes{
		Algorithm: name,
		Purposes:  keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePrivate),
		Format:    crypto.FormatRaw,
		Type:      crypto.KeyTypePrivate,
		Size:      spec.KeySize,
	}, buf)
	if err != nil {
		buf.Free()
		return nil, err
	}

	public, err := crypto.NewNativeKey(crypto.Attributes{
		Algorithm: name,
		Purposes:  keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePublic),
		Format:    crypto.FormatNative,
		Type:      crypto.KeyTypePublic,
		Size:      spec.KeySize,
	}, pub)
	if err != nil {
		private.Destroy()
		return nil, err
	}
	return &crypto.KeyPair{Public: public, Private: private}, nil
}

func keepSpec(spec crypto.GenerationSpec) (crypto.GenerationSpec, error) {
	return spec, nil
}

func bindKey(key *crypto.Key) (*crypto.Key, error) {
	return key, nil
}

func publicOf[T any](key *crypto.Key) (T, error) {
	var zero T
	native, err := key.Native()
	if err != nil {
		return zero, err
	}
	pub, ok := native.(T)
	if !ok {
		return zero, fmt.Errorf("%s key references %T: %w", key.Algorithm(), native, crypto.ErrOperationNotSupported)
	}
	return pub, nil
}

func (p *Provider) dilithiumAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmDilithium)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmDilithium, crypto.PurposesSignature, 0).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			pk, sk, err := p.dilithium.GenerateKeys()
			if err != nil {
				return nil, err
			}
			return p.sealPair(crypto.AlgorithmDilithium, spec, sk, pk)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmDilithium).
		Initializer(bindKey).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			raw, err := key.Secret()
			if err != nil {
				return nil, err
			}
			sk, err := p.dilithium.ParsePrivateKey(raw)
			if err != nil {
				return nil, err
			}
			return p.dilithium.Sign(data, sk)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			pk, err := publicOf[sign.PublicKey](key)
			if err != nil {
				return false, err
			}
			return p.dilithium.Verify(data, signature, pk)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	if err := errors.Join(alg.AttachKeyGenerator(keygen), alg.AttachSignature(sig)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (p *Provider) kyberAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmKyber)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmKyber, crypto.PurposesSymmetric, 0).
		Initializer(keepSpec).
		GenerateKeyPair(func(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
			pk, sk, err := p.kyber.GenerateKeys()
			if err != nil {
				return nil, err
			}
			return p.sealPair(crypto.AlgorithmKyber, spec, sk, pk)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	cipher, err := algorithm.NewCipherBuilder[*crypto.Key](crypto.AlgorithmKyber).
		Initializer(func(key *crypto.Key, _ crypto.BlockMode) (*crypto.Key, error) { return key, nil }).
		Encrypt(func(key *crypto.Key, plaintext []byte) ([]byte, error) {
			pk, err := publicOf[kem.PublicKey](key)
			if err != nil {
				return nil, err
			}
			return p.kyber.Encrypt(plaintext, pk)
		}).
		Decrypt(func(key *crypto.Key, ciphertext []byte) ([]byte, error) {
			raw, err := key.Secret()
			if err != nil {
				return nil, err
			}
			sk, err := p.kyber.ParsePrivateKey(raw)
			if err != nil {
				return nil, err
			}
			return p.kyber.Decrypt(ciphertext, sk)
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
