package keyparser

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/awnumar/memguard"
)

// trial attempts one encoding on a hardened copy of the input. A nil key with a nil error means "not this format".
type trial struct {
	name string
	run  func(p *Parser, material []byte) (*crypto.Key, error)
}

// trials run in order; the first match wins.
var trials = []trial{
	{"PEM private key", (*Parser).pemPrivate},
	{"PEM public key", (*Parser).pemPublic},
	{"DER private key", (*Parser).derPrivate},
	{"DER public key", (*Parser).derPublic},
}

// Parser detects key encodings. Private material is moved into heap.
type Parser struct {
	heap   *securemem.Heap
	logger logger.Logger
}

// NewParser creates a parser allocating from heap. The parser does not own heap.
func NewParser(heap *securemem.Heap, logger logger.Logger) *Parser {
	return &Parser{heap: heap, logger: logger}
}

// Parse tries PEM private, PEM public, DER private and DER public in that order and returns the first match with
// the natural purposes of its algorithm and type. It returns false when no encoding matched or the heap refused
// the allocation; Load tells the two apart.
func (p *Parser) Parse(data []byte) (*crypto.Key, bool) {
	key, err := p.parse(data)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("Key parser aborted: %v", err))
		return nil, false
	}
	return key, key != nil
}

// parse returns a nil key and nil error when no encoding matched, and an error only when a trial could not run.
func (p *Parser) parse(data []byte) (*crypto.Key, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for _, t := range trials {
		key, err := p.attempt(t, data)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s trial: %w", t.name, err)
		}
		if key != nil {
			p.logger.Debug(fmt.Sprintf("Key material recognized as %s", t.name))
			return key, nil
		}
	}
	return nil, nil
}

// attempt runs t on a fresh hardened copy of data that is released before returning.
func (p *Parser) attempt(t trial, data []byte) (*crypto.Key, error) {
	buf, err := p.heap.Allocate(len(data))
	if err != nil {
		return nil, err
	}
	defer buf.Free()

	copy(buf.Bytes(), data)
	return t.run(p, buf.Bytes())
}

// Load parses data and applies the caller's assertions. An empty expectedAlgorithm accepts any algorithm and
// PurposeNone keeps the natural purposes; otherwise the key is narrowed to purposes. A heap that refuses the
// allocation is reported as such, never as an unrecognized format.
func (p *Parser) Load(data []byte, expectedAlgorithm string, purposes crypto.Purpose) (*crypto.Key, error) {
	key, err := p.parse(data)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, &crypto.KeyFormatUnrecognizedError{Length: len(data)}
	}
	if expectedAlgorithm != "" && key.Algorithm() != expectedAlgorithm {
		key.Destroy()
		return nil, &crypto.AlgorithmMismatchError{Expected: expectedAlgorithm, Actual: key.Algorithm()}
	}
	if purposes == crypto.PurposeNone {
		return key, nil
	}

	narrowed, err := p.narrow(key, purposes)
	if err != nil {
		return nil, err
	}
	return narrowed, nil
}

// narrow rebuilds key with its purposes intersected with requested. key is consumed.
func (p *Parser) narrow(key *crypto.Key, requested crypto.Purpose) (*crypto.Key, error) {
	defer key.Destroy()

	attrs := key.Attributes()
	available := attrs.Purposes
	attrs.Purposes = available.Intersect(requested)
	if attrs.Purposes == crypto.PurposeNone {
		return nil, &crypto.UnsupportedPurposeError{
			Algorithm: attrs.Algorithm,
			Operation: "key loading",
			Required:  requested,
			Available: available,
		}
	}

	if !key.Owned() {
		native, err := key.Native()
		if err != nil {
			return nil, err
		}
		return crypto.NewNativeKey(attrs, native)
	}

	secret, err := key.Secret()
	if err != nil {
		return nil, err
	}
	buf, err := p.heap.Allocate(len(secret))
	if err != nil {
		return nil, err
	}
	copy(buf.Bytes(), secret)
	narrowed, err := crypto.NewSecureKey(attrs, buf)
	if err != nil {
		buf.Free()
		return nil, err
	}
	return narrowed, nil
}

// eachBlock calls fn on the PEM blocks of material in order until fn returns a key or an error. Blocks fn does not
// handle, such as EC PARAMETERS or CERTIFICATE, are skipped. wipe zeroes every block once fn is done with it.
func eachBlock(material []byte, wipe bool, fn func(block *pem.Block) (*crypto.Key, error)) (*crypto.Key, error) {
	rest := material
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, nil
		}
		key, err := fn(block)
		if wipe {
			memguard.WipeBytes(block.Bytes)
		}
		if err != nil || key != nil {
			return key, err
		}
	}
}

func (p *Parser) pemPrivate(material []byte) (*crypto.Key, error) {
	return eachBlock(material, true, func(block *pem.Block) (*crypto.Key, error) {
		var (
			priv any
			err  error
		)
		switch block.Type {
		case "PRIVATE KEY":
			priv, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		case "RSA PRIVATE KEY":
			priv, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			priv, err = x509.ParseECPrivateKey(block.Bytes)
		default:
			return nil, nil
		}
		if err != nil {
			return nil, nil
		}
		return p.privateKey(priv, crypto.FormatPEM)
	})
}

func (p *Parser) pemPublic(material []byte) (*crypto.Key, error) {
	return eachBlock(material, false, func(block *pem.Block) (*crypto.Key, error) {
		var (
			pub any
			err error
		)
		switch block.Type {
		case "PUBLIC KEY":
			pub, err = x509.ParsePKIXPublicKey(block.Bytes)
		case "RSA PUBLIC KEY":
			pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
		default:
			return nil, nil
		}
		if err != nil {
			return nil, nil
		}
		return publicKey(pub, crypto.FormatPEM)
	})
}

func (p *Parser) derPrivate(material []byte) (*crypto.Key, error) {
	if priv, err := x509.ParsePKCS8PrivateKey(material); err == nil {
		return p.privateKey(priv, crypto.FormatDER)
	}
	if priv, err := x509.ParsePKCS1PrivateKey(material); err == nil {
		return p.privateKey(priv, crypto.FormatDER)
	}
	if priv, err := x509.ParseECPrivateKey(material); err == nil {
		return p.privateKey(priv, crypto.FormatDER)
	}
	return nil, nil
}

func (p *Parser) derPublic(material []byte) (*crypto.Key, error) {
	if pub, err := x509.ParsePKIXPublicKey(material); err == nil {
		return publicKey(pub, crypto.FormatDER)
	}
	if pub, err := x509.ParsePKCS1PublicKey(material); err == nil {
		return publicKey(pub, crypto.FormatDER)
	}
	return nil, nil
}

// privateKey stores priv as PKCS#8 in the secure heap. Unsupported key types are reported as no match.
func (p *Parser) privateKey(priv any, format crypto.Format) (*crypto.Key, error) {
	alg, size, ok := describePrivate(priv)
	if !ok {
		return nil, nil
	}
	return SealPrivateKey(p.heap, crypto.Attributes{
		Algorithm: alg,
		Purposes:  naturalPurposes(alg, crypto.KeyTypePrivate),
		Format:    format,
		Type:      crypto.KeyTypePrivate,
		Size:      size,
	}, priv)
}

func publicKey(pub any, format crypto.Format) (*crypto.Key, error) {
	alg, size, ok := describePublic(pub)
	if !ok {
		return nil, nil
	}
	return crypto.NewNativeKey(crypto.Attributes{
		Algorithm: alg,
		Purposes:  naturalPurposes(alg, crypto.KeyTypePublic),
		Format:    format,
		Type:      crypto.KeyTypePublic,
		Size:      size,
	}, pub)
}

func describePrivate(priv any) (string, int, bool) {
	switch k := priv.(type) {
	case *rsa.PrivateKey:
		return crypto.AlgorithmRSA, k.N.BitLen(), true
	case *ecdsa.PrivateKey:
		return crypto.AlgorithmECDSA, k.Curve.Params().BitSize, true
	case ed25519.PrivateKey:
		return crypto.AlgorithmEd25519, 256, true
	default:
		return "", 0, false
	}
}

func describePublic(pub any) (string, int, bool) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return crypto.AlgorithmRSA, k.N.BitLen(), true
	case *ecdsa.PublicKey:
		return crypto.AlgorithmECDSA, k.Curve.Params().BitSize, true
	case ed25519.PublicKey:
		return crypto.AlgorithmEd25519, 256, true
	default:
		return "", 0, false
	}
}

// naturalPurposes is what a key of the given algorithm and type can do at most.
func naturalPurposes(alg string, typ crypto.KeyType) crypto.Purpose {
	maximal := crypto.PurposesSignature
	if alg == crypto.AlgorithmRSA {
		maximal = crypto.PurposeAll
	}
	return HalfPurposes(maximal, typ)
}

// HalfPurposes splits asymmetric purposes between the halves of a pair: public keys encrypt and verify, private
// keys decrypt and sign.
func HalfPurposes(purposes crypto.Purpose, typ crypto.KeyType) crypto.Purpose {
	switch typ {
	case crypto.KeyTypePublic:
		return purposes.Intersect(crypto.PurposeEncrypt | crypto.PurposeVerify)
	case crypto.KeyTypePrivate:
		return purposes.Intersect(crypto.PurposeDecrypt | crypto.PurposeSigning)
	default:
		return purposes
	}
}
