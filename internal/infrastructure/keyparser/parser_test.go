//go:build unit
// +build unit

package keyparser

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parserFixture struct {
	sub    *securemem.Subsystem
	heap   *securemem.Heap
	parser *Parser
}

func setupParser(t *testing.T) *parserFixture {
	t.Helper()
	sub := securemem.NewSubsystem()
	heap := sub.Open()
	t.Cleanup(func() { _ = heap.Close() })

	return &parserFixture{sub: sub, heap: heap, parser: NewParser(heap, testutil.SetupTestLogger(t))}
}

func rsaEncodings(t *testing.T) (pkcs8PEM, pkcs8DER, pubPEM, pubDER []byte) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkcs8DER, err = x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pubDER, err = x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pkcs8PEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8DER})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return pkcs8PEM, pkcs8DER, pubPEM, pubDER
}

func TestParser_Parse(t *testing.T) {
	f := setupParser(t)
	privPEM, privDER, pubPEM, pubDER := rsaEncodings(t)

	tests := []struct {
		name     string
		data     []byte
		typ      crypto.KeyType
		format   crypto.Format
		purposes crypto.Purpose
	}{
		{"PrivatePEM", privPEM, crypto.KeyTypePrivate, crypto.FormatPEM, crypto.PurposeDecrypt | crypto.PurposeSigning},
		{"PrivateDER", privDER, crypto.KeyTypePrivate, crypto.FormatDER, crypto.PurposeDecrypt | crypto.PurposeSigning},
		{"PublicPEM", pubPEM, crypto.KeyTypePublic, crypto.FormatPEM, crypto.PurposeEncrypt | crypto.PurposeVerify},
		{"PublicDER", pubDER, crypto.KeyTypePublic, crypto.FormatDER, crypto.PurposeEncrypt | crypto.PurposeVerify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := f.parser.Parse(tt.data)
			require.True(t, ok)
			defer key.Destroy()

			assert.Equal(t, crypto.AlgorithmRSA, key.Algorithm())
			assert.Equal(t, tt.typ, key.Type())
			assert.Equal(t, tt.format, key.Format())
			assert.Equal(t, tt.purposes, key.Purposes())
			assert.Equal(t, 2048, key.Size())
			assert.Equal(t, tt.typ == crypto.KeyTypePrivate, key.Owned())
		})
	}
}

func TestParser_ParseOtherShapes(t *testing.T) {
	f := setupParser(t)

	ecKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	sec1, err := x509.MarshalECPrivateKey(ecKey)
	require.NoError(t, err)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	edDER, err := x509.MarshalPKCS8PrivateKey(edKey)
	require.NoError(t, err)

	tests := []struct {
		name      string
		data      []byte
		algorithm string
		typ       crypto.KeyType
		format    crypto.Format
		size      int
	}{
		{"SEC1PEM", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1}), crypto.AlgorithmECDSA, crypto.KeyTypePrivate, crypto.FormatPEM, 384},
		{"SEC1DER", sec1, crypto.AlgorithmECDSA, crypto.KeyTypePrivate, crypto.FormatDER, 384},
		{"PKCS1PEM", pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)}), crypto.AlgorithmRSA, crypto.KeyTypePrivate, crypto.FormatPEM, 1024},
		{"PKCS1PublicPEM", pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&rsaKey.PublicKey)}), crypto.AlgorithmRSA, crypto.KeyTypePublic, crypto.FormatPEM, 1024},
		{"Ed25519DER", edDER, crypto.AlgorithmEd25519, crypto.KeyTypePrivate, crypto.FormatDER, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := f.parser.Parse(tt.data)
			require.True(t, ok)
			defer key.Destroy()

			assert.Equal(t, tt.algorithm, key.Algorithm())
			assert.Equal(t, tt.typ, key.Type())
			assert.Equal(t, tt.format, key.Format())
			assert.Equal(t, tt.size, key.Size())
		})
	}
}

func TestParser_Unrecognized(t *testing.T) {
	f := setupParser(t)

	noise := make([]byte, 16)
	_, err := rand.Read(noise)
	require.NoError(t, err)

	for name, data := range map[string][]byte{
		"Noise":          noise,
		"Empty":          nil,
		"UnknownPEMType": pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: noise}),
		"CorruptPEM":     pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: noise}),
	} {
		t.Run(name, func(t *testing.T) {
			key, ok := f.parser.Parse(data)
			assert.False(t, ok)
			assert.Nil(t, key)
			assert.Zero(t, f.sub.LiveBuffers(), "trial buffers must be released")
		})
	}
}

func TestParser_TrialBuffersReleased(t *testing.T) {
	f := setupParser(t)
	_, _, pubPEM, _ := rsaEncodings(t)

	key, ok := f.parser.Parse(pubPEM)
	require.True(t, ok)
	assert.Zero(t, f.sub.LiveBuffers(), "public keys keep no secure material")
	key.Destroy()

	privPEM, _, _, _ := rsaEncodings(t)
	key, ok = f.parser.Parse(privPEM)
	require.True(t, ok)
	assert.Equal(t, 1, f.sub.LiveBuffers(), "only the sealed private key stays allocated")
	key.Destroy()
	assert.Zero(t, f.sub.LiveBuffers())
}

func TestParser_ClosedHeap(t *testing.T) {
	f := setupParser(t)
	privPEM, _, _, _ := rsaEncodings(t)
	require.NoError(t, f.heap.Close())

	_, ok := f.parser.Parse(privPEM)
	assert.False(t, ok)

	_, err := f.parser.Load(privPEM, "", crypto.PurposeNone)
	require.Error(t, err)
	assert.ErrorIs(t, err, securemem.ErrHeapClosed)
	assert.NotErrorIs(t, err, crypto.ErrKeyFormatUnrecognized)
	var unrecognized *crypto.KeyFormatUnrecognizedError
	assert.False(t, errors.As(err, &unrecognized))
}

func TestParser_MultiBlockPEM(t *testing.T) {
	f := setupParser(t)

	ecPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	sec1, err := x509.MarshalECPrivateKey(ecPriv)
	require.NoError(t, err)
	ecPubDER, err := x509.MarshalPKIXPublicKey(&ecPriv.PublicKey)
	require.NoError(t, err)

	// Layout written by openssl ecparam -genkey: the named curve OID precedes the key.
	prime256v1 := []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}
	params := pem.EncodeToMemory(&pem.Block{Type: "EC PARAMETERS", Bytes: prime256v1})
	junkCert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("not a certificate")})

	tests := []struct {
		name string
		data []byte
		typ  crypto.KeyType
	}{
		{"ECParametersThenPrivateKey", append(append([]byte{}, params...), pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})...), crypto.KeyTypePrivate},
		{"CertificateThenPrivateKey", append(append([]byte{}, junkCert...), pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: sec1})...), crypto.KeyTypePrivate},
		{"CertificateThenPublicKey", append(append([]byte{}, junkCert...), pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: ecPubDER})...), crypto.KeyTypePublic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := f.parser.Parse(tt.data)
			require.True(t, ok)
			defer key.Destroy()

			assert.Equal(t, crypto.AlgorithmECDSA, key.Algorithm())
			assert.Equal(t, tt.typ, key.Type())
			assert.Equal(t, crypto.FormatPEM, key.Format())
			assert.Equal(t, 256, key.Size())
		})
	}

	t.Run("OnlyParameters", func(t *testing.T) {
		_, err := f.parser.Load(params, "", crypto.PurposeNone)
		assert.ErrorIs(t, err, crypto.ErrKeyFormatUnrecognized)
		assert.Zero(t, f.sub.LiveBuffers())
	})
}

func TestParser_Load(t *testing.T) {
	f := setupParser(t)
	privPEM, _, pubPEM, _ := rsaEncodings(t)

	t.Run("ExpectedAlgorithm", func(t *testing.T) {
		key, err := f.parser.Load(privPEM, crypto.AlgorithmRSA, crypto.PurposeNone)
		require.NoError(t, err)
		defer key.Destroy()
		assert.Equal(t, crypto.AlgorithmRSA, key.Algorithm())
	})

	t.Run("AlgorithmMismatch", func(t *testing.T) {
		_, err := f.parser.Load(privPEM, crypto.AlgorithmECDSA, crypto.PurposeNone)
		var mismatch *crypto.AlgorithmMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, crypto.AlgorithmECDSA, mismatch.Expected)
		assert.Equal(t, crypto.AlgorithmRSA, mismatch.Actual)
		assert.Zero(t, f.sub.LiveBuffers())
	})

	t.Run("Unrecognized", func(t *testing.T) {
		_, err := f.parser.Load([]byte("not a key at all"), "", crypto.PurposeNone)
		var unrecognized *crypto.KeyFormatUnrecognizedError
		require.ErrorAs(t, err, &unrecognized)
		assert.Equal(t, 16, unrecognized.Length)
		assert.ErrorIs(t, err, crypto.ErrKeyFormatUnrecognized)
	})

	t.Run("NarrowPurposes", func(t *testing.T) {
		key, err := f.parser.Load(privPEM, "", crypto.PurposeSigning|crypto.PurposeEncrypt)
		require.NoError(t, err)
		defer key.Destroy()
		assert.Equal(t, crypto.PurposeSigning, key.Purposes())
		assert.Equal(t, 1, f.sub.LiveBuffers())

		pub, err := f.parser.Load(pubPEM, "", crypto.PurposeVerify)
		require.NoError(t, err)
		assert.Equal(t, crypto.PurposeVerify, pub.Purposes())
	})

	t.Run("NoPurposeLeft", func(t *testing.T) {
		_, err := f.parser.Load(pubPEM, "", crypto.PurposeSigning)
		assert.ErrorIs(t, err, crypto.ErrUnsupportedPurpose)
	})
}
