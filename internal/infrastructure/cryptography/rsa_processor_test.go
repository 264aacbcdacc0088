//go:build unit
// +build unit

package cryptography

import (
	"bytes"
	"crypto/rsa"
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	TestKeySize2048 = 2048
)

func setupRSAProcessor(t *testing.T) cryptoalg.RSAProcessor {
	t.Helper()
	processor, err := NewRSAProcessor(testutil.SetupTestLogger(t))
	require.NoError(t, err)
	return processor
}

func TestRSAProcessor(t *testing.T) {
	processor := setupRSAProcessor(t)
	privateKey, err := processor.GenerateKeys(TestKeySize2048)
	require.NoError(t, err)
	publicKey := &privateKey.PublicKey

	t.Run("GenerateKeys", func(t *testing.T) {
		assert.IsType(t, &rsa.PublicKey{}, publicKey)
		assert.Equal(t, TestKeySize2048, privateKey.N.BitLen())
	})

	t.Run("EncryptDecrypt", func(t *testing.T) {
		for _, plainText := range [][]byte{
			[]byte("This is a secret message"),
			bytes.Repeat([]byte("chunked "), 100),
		} {
			encrypted, err := processor.Encrypt(plainText, publicKey)
			require.NoError(t, err)
			assert.Zero(t, len(encrypted)%publicKey.Size())

			decrypted, err := processor.Decrypt(encrypted, privateKey)
			require.NoError(t, err)
			assert.Equal(t, plainText, decrypted)
		}
	})

	t.Run("EncryptEmpty", func(t *testing.T) {
		encrypted, err := processor.Encrypt(nil, publicKey)
		require.NoError(t, err)
		decrypted, err := processor.Decrypt(encrypted, privateKey)
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("DecryptWithWrongKey", func(t *testing.T) {
		encrypted, err := processor.Encrypt([]byte("This should fail decryption"), publicKey)
		require.NoError(t, err)

		wrongPrivKey, err := processor.GenerateKeys(TestKeySize2048)
		require.NoError(t, err)

		_, err = processor.Decrypt(encrypted, wrongPrivKey)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("DecryptTruncated", func(t *testing.T) {
		encrypted, err := processor.Encrypt([]byte("data"), publicKey)
		require.NoError(t, err)

		_, err = processor.Decrypt(encrypted[:len(encrypted)-1], privateKey)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("SignAndVerify", func(t *testing.T) {
		data := []byte("This is a test message")
		signature, err := processor.Sign(data, privateKey)
		require.NoError(t, err)

		valid, err := processor.Verify(data, signature, publicKey)
		assert.NoError(t, err)
		assert.True(t, valid)

		valid, err = processor.Verify([]byte("This is a tampered message"), signature, publicKey)
		assert.NoError(t, err)
		assert.False(t, valid)

		signature[0] ^= 0x01
		valid, err = processor.Verify(data, signature, publicKey)
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("NilKeys", func(t *testing.T) {
		_, err := processor.Encrypt([]byte("x"), nil)
		assert.Error(t, err)
		_, err = processor.Sign([]byte("x"), nil)
		assert.Error(t, err)
		_, err = processor.Verify([]byte("x"), []byte("y"), nil)
		assert.Error(t, err)
	})
}
