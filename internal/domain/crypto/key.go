package crypto

import (
	"fmt"
	"sync"

	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/google/uuid"
)

// Format describes how key material is encoded.
type Format string

// Key formats
const (
	FormatPEM    Format = "PEM"
	FormatDER    Format = "DER"
	FormatPKCS7  Format = "PKCS7"
	FormatPKCS8  Format = "PKCS8"
	FormatPKCS12 Format = "PKCS12"
	FormatNative Format = "NATIVE"
	FormatRaw    Format = "RAW"
)

// KeyType distinguishes the halves of an asymmetric pair from symmetric secrets.
type KeyType string

// Key types
const (
	KeyTypePrivate KeyType = "private"
	KeyTypePublic  KeyType = "public"
	KeyTypeSecret  KeyType = "secret"
)

// Attributes is the metadata every Key carries.
type Attributes struct {
	Algorithm string
	Purposes  Purpose
	Format    Format
	Type      KeyType
	// Size is the key size in bits, zero when unknown.
	Size int
}

// Key is a unit of key material together with its metadata.
//
// A Key either owns a secure heap buffer, which Destroy wipes, or references a native object such as a public key
// or a token-resident handle, in which case Destroy only drops the reference. A Key is not safe for concurrent
// use apart from Destroy.
type Key struct {
	id     string
	attrs  Attributes
	secret *securemem.Buffer
	native any

	mu        sync.Mutex
	destroyed bool
}

// NewSecureKey wraps a secure heap buffer. The key takes ownership of buf.
func NewSecureKey(attrs Attributes, buf *securemem.Buffer) (*Key, error) {
	if buf == nil || buf.Destroyed() {
		return nil, fmt.Errorf("failed to create %s key: %w", attrs.Algorithm, ErrKeyDestroyed)
	}
	if !attrs.Purposes.Valid() {
		return nil, fmt.Errorf("failed to create %s key: invalid purposes %#x", attrs.Algorithm, uint8(attrs.Purposes))
	}
	return &Key{id: uuid.NewString(), attrs: attrs, secret: buf}, nil
}

// NewNativeKey wraps a native object without taking ownership of it.
func NewNativeKey(attrs Attributes, native any) (*Key, error) {
	if native == nil {
		return nil, fmt.Errorf("failed to create %s key: native reference is nil", attrs.Algorithm)
	}
	if !attrs.Purposes.Valid() {
		return nil, fmt.Errorf("failed to create %s key: invalid purposes %#x", attrs.Algorithm, uint8(attrs.Purposes))
	}
	return &Key{id: uuid.NewString(), attrs: attrs, native: native}, nil
}

// NewSecretKey moves raw symmetric key bytes into the secure heap. raw is wiped.
func NewSecretKey(heap *securemem.Heap, algorithm string, purposes Purpose, raw []byte) (*Key, error) {
	buf, err := heap.AllocateFrom(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s key: %w", algorithm, err)
	}
	key, err := NewSecureKey(Attributes{
		Algorithm: algorithm,
		Purposes:  purposes,
		Format:    FormatRaw,
		Type:      KeyTypeSecret,
		Size:      buf.Size() * 8,
	}, buf)
	if err != nil {
		buf.Free()
		return nil, err
	}
	return key, nil
}

// ID returns a random identifier assigned at creation.
func (k *Key) ID() string { return k.id }

// Algorithm returns the name of the algorithm the key belongs to.
func (k *Key) Algorithm() string { return k.attrs.Algorithm }

// Purposes returns the operations the key is authorized for.
func (k *Key) Purposes() Purpose { return k.attrs.Purposes }

// Format returns the key encoding.
func (k *Key) Format() Format { return k.attrs.Format }

// Type returns the key type.
func (k *Key) Type() KeyType { return k.attrs.Type }

// Size returns the key size in bits.
func (k *Key) Size() int { return k.attrs.Size }

// Attributes returns a copy of the key metadata.
func (k *Key) Attributes() Attributes { return k.attrs }

// Can reports whether the key carries every bit of p.
func (k *Key) Can(p Purpose) bool { return k.attrs.Purposes.Has(p) }

// Owned reports whether the key owns secure heap material.
func (k *Key) Owned() bool { return k.secret != nil }

// Secret returns the secure heap bytes of an owning key. The slice is only valid until Destroy.
func (k *Key) Secret() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.released() {
		return nil, ErrKeyDestroyed
	}
	if k.secret == nil {
		return nil, fmt.Errorf("%s %s key holds no secret material", k.attrs.Algorithm, k.attrs.Type)
	}
	return k.secret.Bytes(), nil
}

// Native returns the native object a non-owning key references.
func (k *Key) Native() (any, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return nil, ErrKeyDestroyed
	}
	if k.native == nil {
		return nil, fmt.Errorf("%s %s key holds no native reference", k.attrs.Algorithm, k.attrs.Type)
	}
	return k.native, nil
}

// Destroy zeroizes owned material, or drops the native reference. Safe to call more than once.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.destroyed = true
	if k.secret != nil {
		k.secret.Free()
	}
	k.native = nil
}

// Destroyed reports whether Destroy has been called or the owned buffer was wiped by a secure heap teardown.
func (k *Key) Destroyed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.released()
}

func (k *Key) released() bool {
	return k.destroyed || (k.secret != nil && k.secret.Destroyed())
}

func (k *Key) String() string {
	return fmt.Sprintf("%s %s key (%s, %s)", k.attrs.Algorithm, k.attrs.Type, k.attrs.Format, k.attrs.Purposes)
}

// KeyPair holds the two independent halves of an asymmetric key.
type KeyPair struct {
	Public  *Key
	Private *Key
}

// Destroy destroys both halves.
func (kp *KeyPair) Destroy() {
	if kp == nil {
		return
	}
	kp.Public.Destroy()
	kp.Private.Destroy()
}
