package algorithm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// KeyGeneratorInfo describes what a key generation capability accepts.
type KeyGeneratorInfo struct {
	// KeyPurposes is the maximal purpose set generated keys may carry.
	KeyPurposes     crypto.Purpose
	DefaultKeySize  int
	AllowedKeySizes []int
	Asymmetric      bool
}

// KeyGeneratorDelegate is a built key generation capability.
type KeyGeneratorDelegate interface {
	Info() KeyGeneratorInfo
	open(spec crypto.GenerationSpec) (keyGenSession, error)
}

type keyGenSession interface {
	generateKey() (*crypto.Key, error)
	generateKeyPair() (*crypto.KeyPair, error)
	close() error
}

// KeyGeneratorBuilder wires a backend context type C into a key generation capability.
type KeyGeneratorBuilder[C any] struct {
	wiring
	info           KeyGeneratorInfo
	initializer    func(spec crypto.GenerationSpec) (C, error)
	generateKeyFn  func(ctx C) (*crypto.Key, error)
	generatePairFn func(ctx C) (*crypto.KeyPair, error)
	closer         func(ctx C) error
}

// NewKeyGeneratorBuilder starts a key generation capability supporting keyPurposes.
func NewKeyGeneratorBuilder[C any](name string, keyPurposes crypto.Purpose, defaultKeySize int, allowedKeySizes ...int) *KeyGeneratorBuilder[C] {
	return &KeyGeneratorBuilder[C]{
		wiring: wiring{component: name + " key generator"},
		info: KeyGeneratorInfo{
			KeyPurposes:     keyPurposes,
			DefaultKeySize:  defaultKeySize,
			AllowedKeySizes: slices.Clone(allowedKeySizes),
		},
	}
}

// Initializer sets the function that builds the backend context from a validated spec.
func (b *KeyGeneratorBuilder[C]) Initializer(fn func(spec crypto.GenerationSpec) (C, error)) *KeyGeneratorBuilder[C] {
	if b.initializer != nil {
		b.twice("initializer")
		return b
	}
	b.initializer = fn
	return b
}

// GenerateKey registers symmetric key generation. It excludes GenerateKeyPair.
func (b *KeyGeneratorBuilder[C]) GenerateKey(fn func(ctx C) (*crypto.Key, error)) *KeyGeneratorBuilder[C] {
	if b.generateKeyFn != nil || b.generatePairFn != nil {
		b.twice("key generation")
		return b
	}
	b.generateKeyFn = fn
	return b
}

// GenerateKeyPair registers asymmetric key pair generation. It excludes GenerateKey.
func (b *KeyGeneratorBuilder[C]) GenerateKeyPair(fn func(ctx C) (*crypto.KeyPair, error)) *KeyGeneratorBuilder[C] {
	if b.generateKeyFn != nil || b.generatePairFn != nil {
		b.twice("key generation")
		return b
	}
	b.generatePairFn = fn
	b.info.Asymmetric = true
	return b
}

// Close sets an optional release function run when a generator session is closed.
func (b *KeyGeneratorBuilder[C]) Close(fn func(ctx C) error) *KeyGeneratorBuilder[C] {
	if b.closer != nil {
		b.twice("close")
		return b
	}
	b.closer = fn
	return b
}

// Build validates the wiring and returns the immutable delegate.
func (b *KeyGeneratorBuilder[C]) Build() (KeyGeneratorDelegate, error) {
	if b.initializer == nil {
		b.fail("initializer is required")
	}
	if b.generateKeyFn == nil && b.generatePairFn == nil {
		b.fail("either key or key pair generation is required")
	}
	if b.info.KeyPurposes == crypto.PurposeNone || !b.info.KeyPurposes.Valid() {
		b.fail("invalid key purposes %#x", uint8(b.info.KeyPurposes))
	}
	if len(b.info.AllowedKeySizes) > 0 && !slices.Contains(b.info.AllowedKeySizes, b.info.DefaultKeySize) {
		b.fail("default key size %d is not allowed", b.info.DefaultKeySize)
	}
	if err := b.err(); err != nil {
		return nil, err
	}

	return &keyGeneratorDelegate[C]{
		info:         b.info,
		initializer:  b.initializer,
		generateKey:  b.generateKeyFn,
		generatePair: b.generatePairFn,
		closer:       b.closer,
	}, nil
}

type keyGeneratorDelegate[C any] struct {
	info         KeyGeneratorInfo
	initializer  func(spec crypto.GenerationSpec) (C, error)
	generateKey  func(ctx C) (*crypto.Key, error)
	generatePair func(ctx C) (*crypto.KeyPair, error)
	closer       func(ctx C) error
}

func (d *keyGeneratorDelegate[C]) Info() KeyGeneratorInfo {
	info := d.info
	info.AllowedKeySizes = slices.Clone(d.info.AllowedKeySizes)
	return info
}

func (d *keyGeneratorDelegate[C]) open(spec crypto.GenerationSpec) (keyGenSession, error) {
	ctx, err := d.initializer(spec)
	if err != nil {
		return nil, err
	}
	return &keyGenContext[C]{delegate: d, ctx: ctx}, nil
}

type keyGenContext[C any] struct {
	delegate *keyGeneratorDelegate[C]
	ctx      C
}

func (c *keyGenContext[C]) generateKey() (*crypto.Key, error) {
	return c.delegate.generateKey(c.ctx)
}

func (c *keyGenContext[C]) generateKeyPair() (*crypto.KeyPair, error) {
	return c.delegate.generatePair(c.ctx)
}

func (c *keyGenContext[C]) close() error {
	if c.delegate.closer == nil {
		return nil
	}
	return c.delegate.closer(c.ctx)
}

// resolveSpec checks purposes and key size against the capability and fills in the default size.
func resolveSpec(name string, info KeyGeneratorInfo, spec crypto.GenerationSpec) (crypto.GenerationSpec, error) {
	if spec.Purposes == crypto.PurposeNone || !spec.Purposes.SubsetOf(info.KeyPurposes) {
		return spec, &crypto.UnsupportedPurposeError{
			Algorithm: name,
			Operation: "key generation",
			Required:  spec.Purposes,
			Available: info.KeyPurposes,
		}
	}
	if spec.KeySize == 0 {
		spec.KeySize = info.DefaultKeySize
	}
	if len(info.AllowedKeySizes) > 0 && !slices.Contains(info.AllowedKeySizes, spec.KeySize) {
		return spec, fmt.Errorf("%s key size %d not in %v: %w", name, spec.KeySize, info.AllowedKeySizes, crypto.ErrUnsupportedKeySize)
	}
	return spec, nil
}

// checkGenerated rejects keys whose purposes exceed what was requested.
func checkGenerated(name string, spec crypto.GenerationSpec, keys ...*crypto.Key) error {
	for _, k := range keys {
		if k == nil {
			return fmt.Errorf("%s key generation returned no key: %w", name, crypto.ErrBackendOperation)
		}
		if !k.Purposes().SubsetOf(spec.Purposes) {
			return &crypto.UnsupportedPurposeError{
				Algorithm: name,
				Operation: "key generation",
				Required:  k.Purposes(),
				Available: spec.Purposes,
			}
		}
	}
	return nil
}

type generatorSession struct {
	mu      sync.Mutex
	name    string
	spec    crypto.GenerationSpec
	session keyGenSession
	closed  bool
}

func (s *generatorSession) active() error {
	if s.closed {
		return &crypto.InvalidStateError{Operation: "generate key", State: "generator is closed"}
	}
	return nil
}

func (s *generatorSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.session.close(); err != nil {
		return fmt.Errorf("failed to close %s key generator: %w", s.name, err)
	}
	return nil
}

// KeyGenerator produces symmetric keys for a fixed spec.
type KeyGenerator struct {
	generatorSession
}

// KeyPairGenerator produces asymmetric key pairs for a fixed spec.
type KeyPairGenerator struct {
	generatorSession
}

func (a *Algorithm) openGenerator(spec crypto.GenerationSpec, asymmetric bool) (crypto.GenerationSpec, keyGenSession, error) {
	d := a.keyGeneratorDelegate()
	if d == nil {
		return spec, nil, a.missing(CapabilityKeyGenerator)
	}
	info := d.Info()
	if info.Asymmetric != asymmetric {
		kind := "symmetric keys"
		if asymmetric {
			kind = "key pairs"
		}
		return spec, nil, fmt.Errorf("%s does not generate %s: %w", a.name, kind, crypto.ErrOperationNotSupported)
	}

	resolved, err := resolveSpec(a.name, info, spec)
	if err != nil {
		return spec, nil, err
	}
	session, err := d.open(resolved)
	if err != nil {
		return spec, nil, fmt.Errorf("failed to initialize %s key generator: %w", a.name, err)
	}
	return resolved, session, nil
}

// NewKeyGenerator opens a symmetric key generator for spec.
func (a *Algorithm) NewKeyGenerator(spec crypto.GenerationSpec) (*KeyGenerator, error) {
	resolved, session, err := a.openGenerator(spec, false)
	if err != nil {
		return nil, err
	}
	return &KeyGenerator{generatorSession{name: a.name, spec: resolved, session: session}}, nil
}

// NewKeyPairGenerator opens an asymmetric key pair generator for spec.
func (a *Algorithm) NewKeyPairGenerator(spec crypto.GenerationSpec) (*KeyPairGenerator, error) {
	resolved, session, err := a.openGenerator(spec, true)
	if err != nil {
		return nil, err
	}
	return &KeyPairGenerator{generatorSession{name: a.name, spec: resolved, session: session}}, nil
}

// Spec returns the resolved generation spec.
func (g *KeyGenerator) Spec() crypto.GenerationSpec { return g.spec }

// GenerateKey generates a new key.
func (g *KeyGenerator) GenerateKey() (*crypto.Key, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.active(); err != nil {
		return nil, err
	}
	key, err := g.session.generateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", g.name, err)
	}
	if err := checkGenerated(g.name, g.spec, key); err != nil {
		key.Destroy()
		return nil, err
	}
	return key, nil
}

// Spec returns the resolved generation spec.
func (g *KeyPairGenerator) Spec() crypto.GenerationSpec { return g.spec }

// GenerateKeyPair generates a new key pair.
func (g *KeyPairGenerator) GenerateKeyPair() (*crypto.KeyPair, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.active(); err != nil {
		return nil, err
	}
	pair, err := g.session.generateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key pair: %w", g.name, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%s key pair generation returned no pair: %w", g.name, crypto.ErrBackendOperation)
	}
	if err := checkGenerated(g.name, g.spec, pair.Public, pair.Private); err != nil {
		pair.Destroy()
		return nil, err
	}
	return pair, nil
}
