package pkcs11

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/miekg/pkcs11"
	"github.com/minio/sha256-simd"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

const (
	// p256KeySize is the only curve size the token algorithm generates
	p256KeySize = 256
	// p256ScalarSize is the byte length of r and s in a raw CKM_ECDSA signature
	p256ScalarSize = 32
)

// p256Params is the DER encoded OID of prime256v1 used as CKA_EC_PARAMS
var p256Params = []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}

func (p *Provider) ecdsaAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmECDSA)
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmECDSA, crypto.PurposesSignature,
		p256KeySize, p256KeySize).
		Initializer(keepSpec).
		GenerateKeyPair(p.generateECKeyPair).
		Build()
	if err != nil {
		return nil, err
	}

	sig, err := algorithm.NewSignatureBuilder[*crypto.Key](crypto.AlgorithmECDSA).
		Initializer(func(key *crypto.Key) (*crypto.Key, error) { return key, nil }).
		Sign(func(key *crypto.Key, data []byte) ([]byte, error) {
			obj, err := objectOf(key, pkcs11.CKO_PRIVATE_KEY)
			if err != nil {
				return nil, err
			}
			return p.signECDSA(obj, data)
		}).
		Verify(func(key *crypto.Key, signature, data []byte) (bool, error) {
			obj, err := objectOf(key, pkcs11.CKO_PUBLIC_KEY)
			if err != nil {
				return false, err
			}
			return p.verifyECDSA(obj, signature, data)
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

func (p *Provider) generateECKeyPair(spec crypto.GenerationSpec) (*crypto.KeyPair, error) {
	label := newLabel("cps-ec")
	pubPurposes := keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePublic)
	privPurposes := keyparser.HalfPurposes(spec.Purposes, crypto.KeyTypePrivate)

	publicTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, pubPurposes.Has(crypto.PurposeVerify)),
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, p256Params),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	privateTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, privPurposes.Has(crypto.PurposeSigning)),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}

	var pubHandle, privHandle pkcs11.ObjectHandle
	err := p.withSession("generate EC key pair", func(m Module, s pkcs11.SessionHandle) error {
		var err error
		pubHandle, privHandle, err = m.GenerateKeyPair(s,
			[]*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_EC_KEY_PAIR_GEN, nil)}, publicTemplate, privateTemplate)
		return pkgerrors.Wrap(err, "failed to generate EC key pair")
	})
	if err != nil {
		return nil, err
	}

	public, err := objectKey(crypto.Attributes{
		Algorithm: crypto.AlgorithmECDSA,
		Purposes:  pubPurposes,
		Type:      crypto.KeyTypePublic,
		Size:      spec.KeySize,
	}, &Object{Handle: pubHandle, Label: label, Class: pkcs11.CKO_PUBLIC_KEY})
	if err != nil {
		return nil, err
	}
	private, err := objectKey(crypto.Attributes{
		Algorithm: crypto.AlgorithmECDSA,
		Purposes:  privPurposes,
		Type:      crypto.KeyTypePrivate,
		Size:      spec.KeySize,
	}, &Object{Handle: privHandle, Label: label, Class: pkcs11.CKO_PRIVATE_KEY})
	if err != nil {
		public.Destroy()
		return nil, err
	}

	p.logger.Info(fmt.Sprintf("Generated EC P-256 token key pair %s", label))
	return &crypto.KeyPair{Public: public, Private: private}, nil
}

// signECDSA signs the SHA-256 digest of data on the token and returns an ASN.1 DER signature.
func (p *Provider) signECDSA(obj *Object, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)

	var raw []byte
	err := p.withSession("sign", func(m Module, s pkcs11.SessionHandle) error {
		if err := m.SignInit(s, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}, obj.Handle); err != nil {
			return pkgerrors.Wrap(err, "failed to initialize signing")
		}
		var err error
		raw, err = m.Sign(s, digest[:])
		return pkgerrors.Wrap(err, "failed to sign")
	})
	if err != nil {
		return nil, err
	}
	return rawToASN1(raw)
}

// verifyECDSA reports false for malformed or non-matching signatures.
func (p *Provider) verifyECDSA(obj *Object, signature, data []byte) (bool, error) {
	raw, ok := asn1ToRaw(signature, p256ScalarSize)
	if !ok {
		return false, nil
	}
	digest := sha256.Sum256(data)

	valid := false
	err := p.withSession("verify", func(m Module, s pkcs11.SessionHandle) error {
		if err := m.VerifyInit(s, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)}, obj.Handle); err != nil {
			return pkgerrors.Wrap(err, "failed to initialize verification")
		}
		err := m.Verify(s, digest[:], raw)
		switch {
		case err == nil:
			valid = true
			return nil
		case isCode(err, pkcs11.CKR_SIGNATURE_INVALID), isCode(err, pkcs11.CKR_SIGNATURE_LEN_RANGE):
			return nil
		default:
			return pkgerrors.Wrap(err, "failed to verify")
		}
	})
	if err != nil {
		return false, err
	}
	return valid, nil
}

// rawToASN1 converts the r||s output of CKM_ECDSA to the ASN.1 form used by the standard provider.
func rawToASN1(raw []byte) ([]byte, error) {
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, crypto.NewBackendError(ProviderName, "sign", pkgerrors.Errorf("unexpected signature length %d", len(raw)))
	}
	half := len(raw) / 2
	r := new(big.Int).SetBytes(raw[:half])
	s := new(big.Int).SetBytes(raw[half:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

func asn1ToRaw(signature []byte, size int) ([]byte, bool) {
	var (
		inner cryptobyte.String
		r     = new(big.Int)
		s     = new(big.Int)
	)
	input := cryptobyte.String(signature)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.BitLen() > size*8 || s.BitLen() > size*8 {
		return nil, false
	}

	raw := make([]byte, 2*size)
	r.FillBytes(raw[:size])
	s.FillBytes(raw[size:])
	return raw, true
}
