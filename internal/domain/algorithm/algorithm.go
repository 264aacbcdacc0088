package algorithm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// Capability names one of the four delegate kinds.
type Capability string

// Capability kinds
const (
	CapabilityKeyGenerator Capability = "keygen"
	CapabilityCipher       Capability = "cipher"
	CapabilitySignature    Capability = "signature"
	CapabilityHasher       Capability = "hasher"
)

// Algorithm aggregates at most one delegate of each capability under a name.
type Algorithm struct {
	name             string
	blockModes       []crypto.BlockMode
	defaultBlockMode crypto.BlockMode

	mu           sync.RWMutex
	keyGenerator KeyGeneratorDelegate
	cipher       CipherDelegate
	signature    SignatureDelegate
	hasher       HasherDelegate
}

// Option configures an Algorithm.
type Option func(*Algorithm)

// WithBlockModes sets the allowed block modes and the one used when a caller does not pick any.
func WithBlockModes(defaultMode crypto.BlockMode, allowed ...crypto.BlockMode) Option {
	return func(a *Algorithm) {
		a.defaultBlockMode = defaultMode
		a.blockModes = append([]crypto.BlockMode(nil), allowed...)
	}
}

// New creates an Algorithm without capabilities.
func New(name string, opts ...Option) (*Algorithm, error) {
	if name == "" {
		return nil, &crypto.ConfigurationError{Component: "algorithm", Reason: "name must not be empty"}
	}

	a := &Algorithm{name: name}
	for _, opt := range opts {
		opt(a)
	}

	if a.defaultBlockMode != crypto.BlockModeNone && !slices.Contains(a.blockModes, a.defaultBlockMode) {
		return nil, &crypto.ConfigurationError{
			Component: name,
			Reason:    fmt.Sprintf("default block mode %s is not an allowed block mode", a.defaultBlockMode),
		}
	}
	return a, nil
}

// Name returns the algorithm name.
func (a *Algorithm) Name() string { return a.name }

// BlockModes returns the allowed block modes, empty for algorithms without a block cipher.
func (a *Algorithm) BlockModes() []crypto.BlockMode {
	return slices.Clone(a.blockModes)
}

// DefaultBlockMode returns the block mode used when none is requested.
func (a *Algorithm) DefaultBlockMode() crypto.BlockMode { return a.defaultBlockMode }

// SupportsBlockMode reports whether mode is allowed.
func (a *Algorithm) SupportsBlockMode(mode crypto.BlockMode) bool {
	return slices.Contains(a.blockModes, mode)
}

func attachErr(name string, c Capability) error {
	return &crypto.ConfigurationError{Component: name, Reason: fmt.Sprintf("%s capability is already attached", c)}
}

func nilDelegateErr(name string, c Capability) error {
	return &crypto.ConfigurationError{Component: name, Reason: fmt.Sprintf("%s delegate is nil", c)}
}

// AttachKeyGenerator attaches the key generation capability. A second attach fails and keeps the first.
func (a *Algorithm) AttachKeyGenerator(d KeyGeneratorDelegate) error {
	if d == nil {
		return nilDelegateErr(a.name, CapabilityKeyGenerator)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keyGenerator != nil {
		return attachErr(a.name, CapabilityKeyGenerator)
	}
	a.keyGenerator = d
	return nil
}

// AttachCipher attaches the cipher capability. A second attach fails and keeps the first.
func (a *Algorithm) AttachCipher(d CipherDelegate) error {
	if d == nil {
		return nilDelegateErr(a.name, CapabilityCipher)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cipher != nil {
		return attachErr(a.name, CapabilityCipher)
	}
	a.cipher = d
	return nil
}

// AttachSignature attaches the signature capability. A second attach fails and keeps the first.
func (a *Algorithm) AttachSignature(d SignatureDelegate) error {
	if d == nil {
		return nilDelegateErr(a.name, CapabilitySignature)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.signature != nil {
		return attachErr(a.name, CapabilitySignature)
	}
	a.signature = d
	return nil
}

// AttachHasher attaches the hashing capability. A second attach fails and keeps the first.
func (a *Algorithm) AttachHasher(d HasherDelegate) error {
	if d == nil {
		return nilDelegateErr(a.name, CapabilityHasher)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.hasher != nil {
		return attachErr(a.name, CapabilityHasher)
	}
	a.hasher = d
	return nil
}

// Capabilities lists the attached capabilities in a fixed order.
func (a *Algorithm) Capabilities() []Capability {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var caps []Capability
	if a.keyGenerator != nil {
		caps = append(caps, CapabilityKeyGenerator)
	}
	if a.cipher != nil {
		caps = append(caps, CapabilityCipher)
	}
	if a.signature != nil {
		caps = append(caps, CapabilitySignature)
	}
	if a.hasher != nil {
		caps = append(caps, CapabilityHasher)
	}
	return caps
}

// Has reports whether capability c is attached.
func (a *Algorithm) Has(c Capability) bool {
	return slices.Contains(a.Capabilities(), c)
}

// KeyGeneratorInfo returns the key generation metadata, or false when the capability is missing.
func (a *Algorithm) KeyGeneratorInfo() (KeyGeneratorInfo, bool) {
	d := a.keyGeneratorDelegate()
	if d == nil {
		return KeyGeneratorInfo{}, false
	}
	return d.Info(), true
}

func (a *Algorithm) keyGeneratorDelegate() KeyGeneratorDelegate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.keyGenerator
}

func (a *Algorithm) cipherDelegate() CipherDelegate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cipher
}

func (a *Algorithm) signatureDelegate() SignatureDelegate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.signature
}

func (a *Algorithm) hasherDelegate() HasherDelegate {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hasher
}

func (a *Algorithm) missing(c Capability) error {
	return fmt.Errorf("%s has no %s capability: %w", a.name, c, crypto.ErrCapabilityNotAvailable)
}

// checkKey verifies a key belongs to this algorithm and is still usable.
func (a *Algorithm) checkKey(key *crypto.Key) error {
	if key == nil || key.Destroyed() {
		return fmt.Errorf("failed to use %s key: %w", a.name, crypto.ErrKeyDestroyed)
	}
	if key.Algorithm() != a.name {
		return &crypto.AlgorithmMismatchError{Expected: a.name, Actual: key.Algorithm()}
	}
	return nil
}
