//go:build unit
// +build unit

package pqc

import (
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/keyparser"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T) (*provider.Registry, *securemem.Subsystem) {
	t.Helper()
	log := testutil.SetupTestLogger(t)
	sub := securemem.NewSubsystem()

	p, err := NewProviderWithHeap(sub, log)
	require.NoError(t, err)

	registry := provider.NewRegistry(log)
	require.NoError(t, registry.AddProvider(p))
	t.Cleanup(func() { _ = registry.Close() })
	return registry, sub
}

func TestDilithium(t *testing.T) {
	registry, _ := setupRegistry(t)

	alg, ok := registry.AlgorithmByName(crypto.AlgorithmDilithium)
	require.True(t, ok)

	gen, err := alg.NewKeyPairGenerator(crypto.NewGenerationSpec(crypto.PurposesSignature))
	require.NoError(t, err)
	defer gen.Close()
	pair, err := gen.GenerateKeyPair()
	require.NoError(t, err)
	defer pair.Destroy()

	assert.True(t, pair.Private.Owned())
	assert.Equal(t, crypto.PurposeSigning, pair.Private.Purposes())
	assert.Equal(t, crypto.PurposeVerify, pair.Public.Purposes())

	signer, err := alg.NewSignature()
	require.NoError(t, err)
	require.NoError(t, signer.InitSign(pair.Private))
	sig, err := signer.Sign([]byte("Test"))
	require.NoError(t, err)

	verifier, err := alg.NewSignature()
	require.NoError(t, err)
	require.NoError(t, verifier.InitVerify(pair.Public))

	ok, err = verifier.Verify(sig, []byte("Test"))
	require.NoError(t, err)
	assert.True(t, ok)

	sig[0] ^= 0x01
	ok, err = verifier.Verify(sig, []byte("Test"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = alg.NewKeyPairGenerator(crypto.NewGenerationSpec(crypto.PurposesSymmetric))
	assert.ErrorIs(t, err, crypto.ErrUnsupportedPurpose)

	publicPrint, err := keyparser.Fingerprint(pair.Public)
	require.NoError(t, err)
	assert.NotEmpty(t, publicPrint)
}

func TestKyber(t *testing.T) {
	registry, sub := setupRegistry(t)

	alg, ok := registry.AlgorithmByName(crypto.AlgorithmKyber)
	require.True(t, ok)

	gen, err := alg.NewKeyPairGenerator(crypto.NewGenerationSpec(crypto.PurposesSymmetric))
	require.NoError(t, err)
	pair, err := gen.GenerateKeyPair()
	require.NoError(t, err)
	require.NoError(t, gen.Close())
	assert.Equal(t, 1, sub.LiveBuffers())

	encrypter, err := alg.NewCipher(pair.Public, crypto.BlockModeNone)
	require.NoError(t, err)
	decrypter, err := alg.NewCipher(pair.Private, crypto.BlockModeNone)
	require.NoError(t, err)

	ciphertext, err := encrypter.Encrypt([]byte("Test"))
	require.NoError(t, err)
	plaintext, err := decrypter.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Test", string(plaintext))

	_, err = encrypter.Decrypt(ciphertext)
	assert.ErrorIs(t, err, crypto.ErrUnsupportedPurpose)

	pair.Destroy()
	assert.Zero(t, sub.LiveBuffers())
	_, err = decrypter.Decrypt(ciphertext)
	assert.ErrorIs(t, err, crypto.ErrKeyDestroyed)
}

func TestRegistry_Describe(t *testing.T) {
	registry, _ := setupRegistry(t)

	infos := registry.Describe()
	require.Len(t, infos, 1)
	assert.Equal(t, ProviderName, infos[0].Name)
	assert.Equal(t, []string{crypto.AlgorithmDilithium, crypto.AlgorithmKyber}, infos[0].Algorithms)

	_, ok := registry.AlgorithmByName(crypto.AlgorithmAES)
	assert.False(t, ok)
}
