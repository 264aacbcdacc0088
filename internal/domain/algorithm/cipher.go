package algorithm

import (
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// CipherDelegate is a built cipher capability.
type CipherDelegate interface {
	CanEncrypt() bool
	CanDecrypt() bool
	open(key *crypto.Key, mode crypto.BlockMode) (cipherSession, error)
}

type cipherSession interface {
	encrypt(plaintext []byte) ([]byte, error)
	decrypt(ciphertext []byte) ([]byte, error)
	close() error
}

// CipherBuilder wires a backend context type C into a cipher capability.
type CipherBuilder[C any] struct {
	wiring
	initializer func(key *crypto.Key, mode crypto.BlockMode) (C, error)
	encryptFn   func(ctx C, plaintext []byte) ([]byte, error)
	decryptFn   func(ctx C, ciphertext []byte) ([]byte, error)
	closer      func(ctx C) error
}

// NewCipherBuilder starts a cipher capability for the named algorithm.
func NewCipherBuilder[C any](name string) *CipherBuilder[C] {
	return &CipherBuilder[C]{wiring: wiring{component: name + " cipher"}}
}

// Initializer sets the function that binds a key and block mode into the backend context.
func (b *CipherBuilder[C]) Initializer(fn func(key *crypto.Key, mode crypto.BlockMode) (C, error)) *CipherBuilder[C] {
	if b.initializer != nil {
		b.twice("initializer")
		return b
	}
	b.initializer = fn
	return b
}

// Encrypt registers the encryption operation.
func (b *CipherBuilder[C]) Encrypt(fn func(ctx C, plaintext []byte) ([]byte, error)) *CipherBuilder[C] {
	if b.encryptFn != nil {
		b.twice("encrypt")
		return b
	}
	b.encryptFn = fn
	return b
}

// Decrypt registers the decryption operation.
func (b *CipherBuilder[C]) Decrypt(fn func(ctx C, ciphertext []byte) ([]byte, error)) *CipherBuilder[C] {
	if b.decryptFn != nil {
		b.twice("decrypt")
		return b
	}
	b.decryptFn = fn
	return b
}

// Close sets an optional release function for the backend context.
func (b *CipherBuilder[C]) Close(fn func(ctx C) error) *CipherBuilder[C] {
	if b.closer != nil {
		b.twice("close")
		return b
	}
	b.closer = fn
	return b
}

// Build validates the wiring and returns the immutable delegate.
func (b *CipherBuilder[C]) Build() (CipherDelegate, error) {
	if b.initializer == nil {
		b.fail("initializer is required")
	}
	if b.encryptFn == nil && b.decryptFn == nil {
		b.fail("at least one of encrypt or decrypt is required")
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return &cipherDelegate[C]{
		initializer: b.initializer,
		encrypt:     b.encryptFn,
		decrypt:     b.decryptFn,
		closer:      b.closer,
	}, nil
}

type cipherDelegate[C any] struct {
	initializer func(key *crypto.Key, mode crypto.BlockMode) (C, error)
	encrypt     func(ctx C, plaintext []byte) ([]byte, error)
	decrypt     func(ctx C, ciphertext []byte) ([]byte, error)
	closer      func(ctx C) error
}

func (d *cipherDelegate[C]) CanEncrypt() bool { return d.encrypt != nil }
func (d *cipherDelegate[C]) CanDecrypt() bool { return d.decrypt != nil }

func (d *cipherDelegate[C]) open(key *crypto.Key, mode crypto.BlockMode) (cipherSession, error) {
	ctx, err := d.initializer(key, mode)
	if err != nil {
		return nil, err
	}
	return &cipherContext[C]{delegate: d, ctx: ctx}, nil
}

type cipherContext[C any] struct {
	delegate *cipherDelegate[C]
	ctx      C
}

func (c *cipherContext[C]) encrypt(plaintext []byte) ([]byte, error) {
	return c.delegate.encrypt(c.ctx, plaintext)
}

func (c *cipherContext[C]) decrypt(ciphertext []byte) ([]byte, error) {
	return c.delegate.decrypt(c.ctx, ciphertext)
}

func (c *cipherContext[C]) close() error {
	if c.delegate.closer == nil {
		return nil
	}
	return c.delegate.closer(c.ctx)
}

// Cipher encrypts and decrypts with a bound key. It is not safe for concurrent use.
type Cipher struct {
	mu         sync.Mutex
	name       string
	key        *crypto.Key
	mode       crypto.BlockMode
	canEncrypt bool
	canDecrypt bool
	session    cipherSession
	closed     bool
}

// NewCipher binds key to the cipher capability. mode may be empty to select the default block mode.
func (a *Algorithm) NewCipher(key *crypto.Key, mode crypto.BlockMode) (*Cipher, error) {
	d := a.cipherDelegate()
	if d == nil {
		return nil, a.missing(CapabilityCipher)
	}
	if err := a.checkKey(key); err != nil {
		return nil, err
	}
	if !key.Purposes().HasAny(crypto.PurposesSymmetric) {
		return nil, &crypto.UnsupportedPurposeError{
			Algorithm: a.name,
			Operation: "cipher",
			Required:  crypto.PurposesSymmetric,
			Available: key.Purposes(),
		}
	}

	if mode == crypto.BlockModeNone {
		mode = a.defaultBlockMode
	}
	if mode != crypto.BlockModeNone && !a.SupportsBlockMode(mode) {
		return nil, fmt.Errorf("%s does not support block mode %q: %w", a.name, mode, crypto.ErrUnsupportedBlockMode)
	}

	session, err := d.open(key, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s cipher: %w", a.name, err)
	}
	return &Cipher{
		name:       a.name,
		key:        key,
		mode:       mode,
		canEncrypt: d.CanEncrypt(),
		canDecrypt: d.CanDecrypt(),
		session:    session,
	}, nil
}

// BlockMode returns the block mode in use.
func (c *Cipher) BlockMode() crypto.BlockMode { return c.mode }

func (c *Cipher) ready(op string, purpose crypto.Purpose, registered bool) error {
	if c.closed {
		return &crypto.InvalidStateError{Operation: op, State: "cipher is closed"}
	}
	if c.key.Destroyed() {
		return fmt.Errorf("failed to %s: %w", op, crypto.ErrKeyDestroyed)
	}
	if !c.key.Can(purpose) {
		return &crypto.UnsupportedPurposeError{
			Algorithm: c.name,
			Operation: op,
			Required:  purpose,
			Available: c.key.Purposes(),
		}
	}
	if !registered {
		return fmt.Errorf("%s cannot %s: %w", c.name, op, crypto.ErrOperationNotSupported)
	}
	return nil
}

// Encrypt encrypts plaintext. The key must carry the encrypt purpose.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("encrypt", crypto.PurposeEncrypt, c.canEncrypt); err != nil {
		return nil, err
	}
	out, err := c.session.encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt with %s: %w", c.name, err)
	}
	return out, nil
}

// Decrypt decrypts ciphertext. The key must carry the decrypt purpose.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready("decrypt", crypto.PurposeDecrypt, c.canDecrypt); err != nil {
		return nil, err
	}
	out, err := c.session.decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt with %s: %w", c.name, err)
	}
	return out, nil
}

// Close releases the backend context. The key is not destroyed.
func (c *Cipher) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.session.close(); err != nil {
		return fmt.Errorf("failed to close %s cipher: %w", c.name, err)
	}
	return nil
}
