//go:build unit
// +build unit

package cryptography

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDilithiumProcessor(t *testing.T) {
	processor, err := NewDilithiumProcessor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	pk, sk, err := processor.GenerateKeys()
	require.NoError(t, err)

	msg := []byte("Test")
	sig, err := processor.Sign(msg, sk)
	require.NoError(t, err)

	valid, err := processor.Verify(msg, sig, pk)
	require.NoError(t, err)
	assert.True(t, valid)

	sig[0] ^= 0x01
	valid, err = processor.Verify(msg, sig, pk)
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = processor.Verify(msg, sig[:10], pk)
	require.NoError(t, err)
	assert.False(t, valid)

	raw, err := sk.MarshalBinary()
	require.NoError(t, err)
	parsed, err := processor.ParsePrivateKey(raw)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(sk))

	_, err = processor.ParsePrivateKey([]byte("short"))
	assert.Error(t, err)
}

func TestKyberProcessor(t *testing.T) {
	processor, err := NewKyberProcessor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	pk, sk, err := processor.GenerateKeys()
	require.NoError(t, err)

	for _, msg := range [][]byte{{}, []byte("Test"), bytes.Repeat([]byte("pq"), 4096)} {
		ciphertext, err := processor.Encrypt(msg, pk)
		require.NoError(t, err)
		assert.Equal(t, uint32(1088), binary.BigEndian.Uint32(ciphertext), "Kyber768 ciphertext size")

		plaintext, err := processor.Decrypt(ciphertext, sk)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(msg, plaintext))
	}

	t.Run("TamperedPayload", func(t *testing.T) {
		ciphertext, err := processor.Encrypt([]byte("Test"), pk)
		require.NoError(t, err)
		ciphertext[len(ciphertext)-1] ^= 0x01

		_, err = processor.Decrypt(ciphertext, sk)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("WrongKey", func(t *testing.T) {
		_, otherSK, err := processor.GenerateKeys()
		require.NoError(t, err)
		ciphertext, err := processor.Encrypt([]byte("Test"), pk)
		require.NoError(t, err)

		_, err = processor.Decrypt(ciphertext, otherSK)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := processor.Decrypt([]byte{0, 0, 4, 64, 1, 2}, sk)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("ParsePrivateKey", func(t *testing.T) {
		raw, err := sk.MarshalBinary()
		require.NoError(t, err)
		parsed, err := processor.ParsePrivateKey(raw)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(sk))
	})
}
