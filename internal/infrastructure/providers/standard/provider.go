package standard

import (
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
)

// Provider identity
const (
	ProviderName = "standard"
	Version      = "1.0.0"
)

// Provider registers the algorithms implemented on the Go crypto stack.
type Provider struct {
	logger logger.Logger
	sub    *securemem.Subsystem

	aes     cryptoalg.AESProcessor
	chacha  cryptoalg.AEADProcessor
	rsa     cryptoalg.RSAProcessor
	ecdsa   cryptoalg.ECDSAProcessor
	ed25519 cryptoalg.Ed25519Processor
	k256    cryptoalg.K256Processor
	digest  cryptoalg.DigestProcessor

	mu     sync.Mutex
	heap   *securemem.Heap
	parser *keyparser.Parser
}

var _ provider.Provider = (*Provider)(nil)

// NewProvider creates the provider on the process-wide secure heap. Nothing is allocated until Initialize.
func NewProvider(logger logger.Logger) (*Provider, error) {
	return NewProviderWithHeap(securemem.Default(), logger)
}

// NewProviderWithHeap creates the provider on an explicit secure heap scope.
func NewProviderWithHeap(sub *securemem.Subsystem, logger logger.Logger) (*Provider, error) {
	p := &Provider{logger: logger, sub: sub}

	var err error
	if p.aes, err = cryptography.NewAESProcessor(logger); err != nil {
		return nil, fmt.Errorf("failed to create AES processor: %w", err)
	}
	if p.chacha, err = cryptography.NewChaCha20Poly1305Processor(logger); err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 processor: %w", err)
	}
	if p.rsa, err = cryptography.NewRSAProcessor(logger); err != nil {
		return nil, fmt.Errorf("failed to create RSA processor: %w", err)
	}
	if p.ecdsa, err = cryptography.NewECDSAProcessor(logger); err != nil {
		return nil, fmt.Errorf("failed to create ECDSA processor: %w", err)
	}
	if p.ed25519, err = cryptography.NewEd25519Processor(logger); err != nil {
		return nil, fmt.Errorf("failed to create Ed25519 processor: %w", err)
	}
	if p.k256, err = cryptography.NewK256Processor(logger); err != nil {
		return nil, fmt.Errorf("failed to create K256 processor: %w", err)
	}
	if p.digest, err = cryptography.NewDigestProcessor(logger); err != nil {
		return nil, fmt.Errorf("failed to create digest processor: %w", err)
	}
	return p, nil
}

func (p *Provider) Name() string    { return ProviderName }
func (p *Provider) Version() string { return Version }

func (p *Provider) Description() string {
	return "General purpose algorithms on the Go crypto stack"
}

// Initialize opens the secure heap and registers every algorithm.
func (p *Provider) Initialize(r provider.Registrar) error {
	p.mu.Lock()
	if p.heap != nil {
		p.mu.Unlock()
		return &crypto.ConfigurationError{Component: ProviderName, Reason: "provider is already initialized"}
	}
	p.heap = p.sub.Open()
	p.parser = keyparser.NewParser(p.heap, p.logger)
	p.mu.Unlock()

	assemblers := []func() (*algorithm.Algorithm, error){
		p.aesAlgorithm,
		p.chachaAlgorithm,
		p.rsaAlgorithm,
		p.ecdsaAlgorithm,
		p.ed25519Algorithm,
		p.k256Algorithm,
	}
	for _, name := range p.digest.Algorithms() {
		assemblers = append(assemblers, p.hasherAlgorithm(name))
	}

	for _, assemble := range assemblers {
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

// Parser returns the key parser allocating from the provider's heap.
func (p *Provider) Parser() (*keyparser.Parser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil || p.heap.Closed() {
		return nil, &crypto.InvalidStateError{Operation: "parse keys", State: "provider is not initialized"}
	}
	return p.parser, nil
}

// Heap returns the secure heap handle opened by Initialize, or nil before that.
func (p *Provider) Heap() *securemem.Heap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heap
}

// Close releases the secure heap handle. Keys still holding buffers are wiped once the last handle closes.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.heap == nil {
		return nil
	}
	return p.heap.Close()
}
