//go:build unit
// +build unit

package app

import (
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/pqc"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/standard"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/config"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderSet_SoftwareProviders(t *testing.T) {
	log := testutil.SetupTestLogger(t)

	set, err := NewProviderSet(&config.ProviderSettings{Standard: true, PostQuantum: true}, log)
	require.NoError(t, err)
	defer set.Close()

	infos := set.Registry.Describe()
	require.Len(t, infos, 2)
	assert.Equal(t, standard.ProviderName, infos[0].Name)
	assert.Equal(t, pqc.ProviderName, infos[1].Name)
	assert.Nil(t, set.PKCS11)

	parser, err := set.Parser()
	require.NoError(t, err)
	assert.NotNil(t, parser)

	heap, err := set.Heap()
	require.NoError(t, err)
	assert.False(t, heap.Closed())
}

func TestNewProviderSet_WithoutStandard(t *testing.T) {
	log := testutil.SetupTestLogger(t)

	set, err := NewProviderSet(&config.ProviderSettings{PostQuantum: true}, log)
	require.NoError(t, err)
	defer set.Close()

	_, ok := set.Registry.AlgorithmByName(crypto.AlgorithmAES)
	assert.False(t, ok)

	_, err = set.Parser()
	assert.ErrorIs(t, err, crypto.ErrConfiguration)
	_, err = set.Heap()
	assert.ErrorIs(t, err, crypto.ErrConfiguration)
}

func TestNewProviderSet_InvalidSettings(t *testing.T) {
	log := testutil.SetupTestLogger(t)

	_, err := NewProviderSet(&config.ProviderSettings{}, log)
	assert.Error(t, err)

	_, err = NewProviderSet(&config.ProviderSettings{PKCS11: true}, log)
	assert.Error(t, err)
}
