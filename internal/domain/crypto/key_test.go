//go:build unit
// +build unit

package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretKey(t *testing.T) {
	heap := securemem.NewSubsystem().Open()
	defer heap.Close()

	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	expected := append([]byte(nil), raw...)

	key, err := NewSecretKey(heap, AlgorithmAES, PurposesSymmetric, raw)
	require.NoError(t, err)

	assert.NotEmpty(t, key.ID())
	assert.Equal(t, AlgorithmAES, key.Algorithm())
	assert.Equal(t, PurposesSymmetric, key.Purposes())
	assert.Equal(t, FormatRaw, key.Format())
	assert.Equal(t, KeyTypeSecret, key.Type())
	assert.Equal(t, 256, key.Size())
	assert.True(t, key.Owned())
	assert.Equal(t, make([]byte, 32), raw, "source bytes must be wiped")

	secret, err := key.Secret()
	require.NoError(t, err)
	assert.Equal(t, expected, secret)

	_, err = key.Native()
	assert.Error(t, err)
}

func TestKey_DestroyIsIdempotent(t *testing.T) {
	sub := securemem.NewSubsystem()
	heap := sub.Open()
	defer heap.Close()

	key, err := NewSecretKey(heap, AlgorithmAES, PurposeEncrypt, []byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 1, sub.LiveBuffers())

	key.Destroy()
	key.Destroy()

	assert.True(t, key.Destroyed())
	assert.Equal(t, 0, sub.LiveBuffers())
	_, err = key.Secret()
	assert.ErrorIs(t, err, ErrKeyDestroyed)
}

func TestNewNativeKey(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key, err := NewNativeKey(Attributes{
		Algorithm: AlgorithmECDSA,
		Purposes:  PurposeVerify,
		Format:    FormatNative,
		Type:      KeyTypePublic,
		Size:      256,
	}, &priv.PublicKey)
	require.NoError(t, err)
	assert.False(t, key.Owned())

	native, err := key.Native()
	require.NoError(t, err)
	assert.Same(t, &priv.PublicKey, native)

	key.Destroy()
	_, err = key.Native()
	assert.ErrorIs(t, err, ErrKeyDestroyed)
	assert.True(t, priv.PublicKey.X.Sign() > 0, "destroying a non-owning key leaves the referenced object intact")

	_, err = NewNativeKey(Attributes{Algorithm: AlgorithmECDSA}, nil)
	assert.Error(t, err)
}

func TestNewSecureKey_RejectsInvalidInput(t *testing.T) {
	heap := securemem.NewSubsystem().Open()
	defer heap.Close()

	_, err := NewSecureKey(Attributes{Algorithm: AlgorithmAES}, nil)
	assert.ErrorIs(t, err, ErrKeyDestroyed)

	buf, err := heap.Allocate(16)
	require.NoError(t, err)
	defer buf.Free()

	_, err = NewSecureKey(Attributes{Algorithm: AlgorithmAES, Purposes: Purpose(0x30)}, buf)
	assert.Error(t, err)
}

func TestKeyPair_DestroyReleasesBothHalves(t *testing.T) {
	sub := securemem.NewSubsystem()
	heap := sub.Open()
	defer heap.Close()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	buf, err := heap.AllocateFrom([]byte("private-material"))
	require.NoError(t, err)

	privateKey, err := NewSecureKey(Attributes{Algorithm: AlgorithmECDSA, Purposes: PurposeSigning, Format: FormatPKCS8, Type: KeyTypePrivate}, buf)
	require.NoError(t, err)
	publicKey, err := NewNativeKey(Attributes{Algorithm: AlgorithmECDSA, Purposes: PurposeVerify, Format: FormatNative, Type: KeyTypePublic}, &priv.PublicKey)
	require.NoError(t, err)

	kp := &KeyPair{Public: publicKey, Private: privateKey}
	kp.Destroy()

	assert.True(t, kp.Public.Destroyed())
	assert.True(t, kp.Private.Destroyed())
	assert.Equal(t, 0, sub.LiveBuffers())
}
