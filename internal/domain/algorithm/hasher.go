package algorithm

import (
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// HasherDelegate is a built hashing capability.
type HasherDelegate interface {
	open() (hasherSession, error)
}

type hasherSession interface {
	hash(data []byte) (string, error)
	close() error
}

// HasherBuilder wires a backend context type C into a hashing capability.
type HasherBuilder[C any] struct {
	wiring
	initializer func() (C, error)
	hashFn      func(ctx C, data []byte) (string, error)
	closer      func(ctx C) error
}

// NewHasherBuilder starts a hashing capability for the named algorithm.
func NewHasherBuilder[C any](name string) *HasherBuilder[C] {
	return &HasherBuilder[C]{wiring: wiring{component: name + " hasher"}}
}

// Initializer sets an optional function creating the backend context once per Hasher.
func (b *HasherBuilder[C]) Initializer(fn func() (C, error)) *HasherBuilder[C] {
	if b.initializer != nil {
		b.twice("initializer")
		return b
	}
	b.initializer = fn
	return b
}

// Hash registers the digest operation. It must not keep state between calls.
func (b *HasherBuilder[C]) Hash(fn func(ctx C, data []byte) (string, error)) *HasherBuilder[C] {
	if b.hashFn != nil {
		b.twice("hash")
		return b
	}
	b.hashFn = fn
	return b
}

// Close sets an optional release function for the backend context.
func (b *HasherBuilder[C]) Close(fn func(ctx C) error) *HasherBuilder[C] {
	if b.closer != nil {
		b.twice("close")
		return b
	}
	b.closer = fn
	return b
}

// Build validates the wiring and returns the immutable delegate.
func (b *HasherBuilder[C]) Build() (HasherDelegate, error) {
	if b.hashFn == nil {
		b.fail("hash is required")
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return &hasherDelegate[C]{initializer: b.initializer, hash: b.hashFn, closer: b.closer}, nil
}

type hasherDelegate[C any] struct {
	initializer func() (C, error)
	hash        func(ctx C, data []byte) (string, error)
	closer      func(ctx C) error
}

func (d *hasherDelegate[C]) open() (hasherSession, error) {
	var ctx C
	if d.initializer != nil {
		var err error
		if ctx, err = d.initializer(); err != nil {
			return nil, err
		}
	}
	return &hasherContext[C]{delegate: d, ctx: ctx}, nil
}

type hasherContext[C any] struct {
	delegate *hasherDelegate[C]
	ctx      C
}

func (c *hasherContext[C]) hash(data []byte) (string, error) {
	return c.delegate.hash(c.ctx, data)
}

func (c *hasherContext[C]) close() error {
	if c.delegate.closer == nil {
		return nil
	}
	return c.delegate.closer(c.ctx)
}

// Hasher computes encoded digests. Identical input always yields identical output.
type Hasher struct {
	mu      sync.Mutex
	name    string
	session hasherSession
	closed  bool
}

// NewHasher opens a hasher.
func (a *Algorithm) NewHasher() (*Hasher, error) {
	d := a.hasherDelegate()
	if d == nil {
		return nil, a.missing(CapabilityHasher)
	}
	session, err := d.open()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s hasher: %w", a.name, err)
	}
	return &Hasher{name: a.name, session: session}, nil
}

// Hash returns the encoded digest of data.
func (h *Hasher) Hash(data []byte) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", &crypto.InvalidStateError{Operation: "hash", State: "hasher is closed"}
	}
	digest, err := h.session.hash(data)
	if err != nil {
		return "", fmt.Errorf("failed to hash with %s: %w", h.name, err)
	}
	return digest, nil
}

// Close releases the backend context.
func (h *Hasher) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.session.close()
}
