package algorithm

import (
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// SignatureDelegate is a built signature capability.
type SignatureDelegate interface {
	CanSign() bool
	CanVerify() bool
	open(key *crypto.Key) (signatureSession, error)
}

type signatureSession interface {
	sign(data []byte) ([]byte, error)
	verify(signature, data []byte) (bool, error)
	close() error
}

// SignatureBuilder wires a backend context type C into a signature capability.
type SignatureBuilder[C any] struct {
	wiring
	initializer func(key *crypto.Key) (C, error)
	signFn      func(ctx C, data []byte) ([]byte, error)
	verifyFn    func(ctx C, signature, data []byte) (bool, error)
	closer      func(ctx C) error
}

// NewSignatureBuilder starts a signature capability for the named algorithm.
func NewSignatureBuilder[C any](name string) *SignatureBuilder[C] {
	return &SignatureBuilder[C]{wiring: wiring{component: name + " signature"}}
}

// Initializer sets the function that binds a key into the backend context.
func (b *SignatureBuilder[C]) Initializer(fn func(key *crypto.Key) (C, error)) *SignatureBuilder[C] {
	if b.initializer != nil {
		b.twice("initializer")
		return b
	}
	b.initializer = fn
	return b
}

// Sign registers the signing operation.
func (b *SignatureBuilder[C]) Sign(fn func(ctx C, data []byte) ([]byte, error)) *SignatureBuilder[C] {
	if b.signFn != nil {
		b.twice("sign")
		return b
	}
	b.signFn = fn
	return b
}

// Verify registers the verification operation. It must report an invalid signature as false, not as an error.
func (b *SignatureBuilder[C]) Verify(fn func(ctx C, signature, data []byte) (bool, error)) *SignatureBuilder[C] {
	if b.verifyFn != nil {
		b.twice("verify")
		return b
	}
	b.verifyFn = fn
	return b
}

// Close sets an optional release function for the backend context.
func (b *SignatureBuilder[C]) Close(fn func(ctx C) error) *SignatureBuilder[C] {
	if b.closer != nil {
		b.twice("close")
		return b
	}
	b.closer = fn
	return b
}

// Build validates the wiring and returns the immutable delegate.
func (b *SignatureBuilder[C]) Build() (SignatureDelegate, error) {
	if b.initializer == nil {
		b.fail("initializer is required")
	}
	if b.signFn == nil && b.verifyFn == nil {
		b.fail("at least one of sign or verify is required")
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return &signatureDelegate[C]{
		initializer: b.initializer,
		sign:        b.signFn,
		verify:      b.verifyFn,
		closer:      b.closer,
	}, nil
}

type signatureDelegate[C any] struct {
	initializer func(key *crypto.Key) (C, error)
	sign        func(ctx C, data []byte) ([]byte, error)
	verify      func(ctx C, signature, data []byte) (bool, error)
	closer      func(ctx C) error
}

func (d *signatureDelegate[C]) CanSign() bool   { return d.sign != nil }
func (d *signatureDelegate[C]) CanVerify() bool { return d.verify != nil }

func (d *signatureDelegate[C]) open(key *crypto.Key) (signatureSession, error) {
	ctx, err := d.initializer(key)
	if err != nil {
		return nil, err
	}
	return &signatureContext[C]{delegate: d, ctx: ctx}, nil
}

type signatureContext[C any] struct {
	delegate *signatureDelegate[C]
	ctx      C
}

func (c *signatureContext[C]) sign(data []byte) ([]byte, error) {
	return c.delegate.sign(c.ctx, data)
}

func (c *signatureContext[C]) verify(signature, data []byte) (bool, error) {
	return c.delegate.verify(c.ctx, signature, data)
}

func (c *signatureContext[C]) close() error {
	if c.delegate.closer == nil {
		return nil
	}
	return c.delegate.closer(c.ctx)
}

type signatureMode int

const (
	modeUninitialized signatureMode = iota
	modeSign
	modeVerify
	modeClosed
)

func (m signatureMode) String() string {
	switch m {
	case modeSign:
		return "initialized for signing"
	case modeVerify:
		return "initialized for verification"
	case modeClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// Signature is a two-phase signing session: InitSign or InitVerify binds a key and selects the mode, then Sign or
// Verify operate on it. Re-initializing releases the previous binding. It is not safe for concurrent use.
type Signature struct {
	mu        sync.Mutex
	algorithm *Algorithm
	delegate  SignatureDelegate
	mode      signatureMode
	key       *crypto.Key
	session   signatureSession
}

// NewSignature opens an uninitialized signature session.
func (a *Algorithm) NewSignature() (*Signature, error) {
	d := a.signatureDelegate()
	if d == nil {
		return nil, a.missing(CapabilitySignature)
	}
	return &Signature{algorithm: a, delegate: d}, nil
}

// Mode returns a description of the current state.
func (s *Signature) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.String()
}

// InitSign binds a key carrying the signing purpose.
func (s *Signature) InitSign(key *crypto.Key) error {
	return s.init(key, modeSign, crypto.PurposeSigning, s.delegate.CanSign())
}

// InitVerify binds a key carrying the verify purpose.
func (s *Signature) InitVerify(key *crypto.Key) error {
	return s.init(key, modeVerify, crypto.PurposeVerify, s.delegate.CanVerify())
}

func (s *Signature) init(key *crypto.Key, mode signatureMode, purpose crypto.Purpose, registered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := "sign"
	if mode == modeVerify {
		op = "verify"
	}
	if s.mode == modeClosed {
		return &crypto.InvalidStateError{Operation: "initialize " + op, State: s.mode.String()}
	}
	if err := s.algorithm.checkKey(key); err != nil {
		return err
	}
	if !key.Can(purpose) {
		return &crypto.UnsupportedPurposeError{
			Algorithm: s.algorithm.name,
			Operation: op,
			Required:  purpose,
			Available: key.Purposes(),
		}
	}
	if !registered {
		return fmt.Errorf("%s cannot %s: %w", s.algorithm.name, op, crypto.ErrOperationNotSupported)
	}

	session, err := s.delegate.open(key)
	if err != nil {
		return fmt.Errorf("failed to initialize %s signature: %w", s.algorithm.name, err)
	}
	if err := s.release(); err != nil {
		_ = session.close()
		return err
	}
	s.session = session
	s.key = key
	s.mode = mode
	return nil
}

func (s *Signature) release() error {
	if s.session == nil {
		return nil
	}
	err := s.session.close()
	s.session = nil
	s.key = nil
	if err != nil {
		return fmt.Errorf("failed to release %s signature context: %w", s.algorithm.name, err)
	}
	return nil
}

// Sign signs data with the key bound by InitSign.
func (s *Signature) Sign(data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != modeSign {
		return nil, &crypto.InvalidStateError{Operation: "sign", State: s.mode.String()}
	}
	if s.key.Destroyed() {
		return nil, fmt.Errorf("failed to sign: %w", crypto.ErrKeyDestroyed)
	}
	sig, err := s.session.sign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with %s: %w", s.algorithm.name, err)
	}
	return sig, nil
}

// Verify checks signature over data with the key bound by InitVerify. A mismatching signature yields false.
func (s *Signature) Verify(signature, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != modeVerify {
		return false, &crypto.InvalidStateError{Operation: "verify", State: s.mode.String()}
	}
	if s.key.Destroyed() {
		return false, fmt.Errorf("failed to verify: %w", crypto.ErrKeyDestroyed)
	}
	ok, err := s.session.verify(signature, data)
	if err != nil {
		return false, fmt.Errorf("failed to verify with %s: %w", s.algorithm.name, err)
	}
	return ok, nil
}

// Close releases the bound context. The key is not destroyed.
func (s *Signature) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == modeClosed {
		return nil
	}
	s.mode = modeClosed
	return s.release()
}
