//go:build unit
// +build unit

package cryptography

import (
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestProcessor(t *testing.T) {
	processor, err := NewDigestProcessor(testutil.SetupTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"SHA-256", "SHA-512", "SHA3-256", "BLAKE2b-256"}, processor.Algorithms())

	tests := []struct {
		algorithm string
		expected  string
	}{
		{crypto.AlgorithmSHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{crypto.AlgorithmSHA512, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{crypto.AlgorithmSHA3256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
		{crypto.AlgorithmBLAKE2b256, "bddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			digest, err := processor.Digest(tt.algorithm, []byte("abc"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, digest)

			again, err := processor.Digest(tt.algorithm, []byte("abc"))
			require.NoError(t, err)
			assert.Equal(t, digest, again)
		})
	}

	_, err = processor.Digest("MD5", []byte("abc"))
	assert.ErrorIs(t, err, crypto.ErrOperationNotSupported)
}
