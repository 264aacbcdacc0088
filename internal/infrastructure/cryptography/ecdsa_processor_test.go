//go:build unit
// +build unit

package cryptography

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestECDSAProcessor(t *testing.T) {
	processor, err := NewECDSAProcessor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	for _, bits := range []int{256, 384, 521} {
		curve, err := CurveForSize(bits)
		require.NoError(t, err)

		t.Run(curve.Params().Name, func(t *testing.T) {
			priv, err := processor.GenerateKeys(curve)
			require.NoError(t, err)
			assert.Equal(t, curve, priv.Curve)

			msg := []byte("This is a test message.")
			sig, err := processor.Sign(msg, priv)
			require.NoError(t, err)

			valid, err := processor.Verify(msg, sig, &priv.PublicKey)
			require.NoError(t, err)
			assert.True(t, valid)

			valid, err = processor.Verify([]byte("This is a test message!"), sig, &priv.PublicKey)
			require.NoError(t, err)
			assert.False(t, valid)

			flipped := append([]byte(nil), sig...)
			flipped[len(flipped)-1] ^= 0x01
			valid, err = processor.Verify(msg, flipped, &priv.PublicKey)
			require.NoError(t, err)
			assert.False(t, valid)
		})
	}

	t.Run("UnsupportedCurveSize", func(t *testing.T) {
		_, err := CurveForSize(224)
		assert.Error(t, err)
	})

	t.Run("VerifyWithInvalidPublicKey", func(t *testing.T) {
		priv, err := processor.GenerateKeys(elliptic.P256())
		require.NoError(t, err)

		msg := []byte("Test message")
		sig, err := processor.Sign(msg, priv)
		require.NoError(t, err)

		invalidPub := &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     big.NewInt(0),
			Y:     big.NewInt(0),
		}

		valid, err := processor.Verify(msg, sig, invalidPub)
		assert.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestEd25519Processor(t *testing.T) {
	processor, err := NewEd25519Processor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	priv, err := processor.GenerateKeys()
	require.NoError(t, err)

	msg := []byte("Test")
	sig, err := processor.Sign(msg, priv)
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	valid, err := processor.Verify(msg, sig, priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	assert.True(t, valid)

	sig[10] ^= 0x80
	valid, err = processor.Verify(msg, sig, priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = processor.Sign(msg, priv[:10])
	assert.Error(t, err)
}

func TestK256Processor(t *testing.T) {
	processor, err := NewK256Processor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	priv, err := processor.GenerateKeys()
	require.NoError(t, err)

	msg := []byte("Test")
	sig, err := processor.Sign(msg, priv)
	require.NoError(t, err)
	assert.Len(t, sig, 64, "compact [R | S] encoding")

	valid, err := processor.Verify(msg, sig, priv.PublicKey())
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = processor.Verify([]byte("Tess"), sig, priv.PublicKey())
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = processor.Sign(msg, nil)
	assert.Error(t, err)
}
