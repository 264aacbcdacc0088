//go:build unit
// +build unit

package app

import (
	"testing"

	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/pqc"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/providers/standard"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/securemem"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/testutil"

	"github.com/stretchr/testify/require"
)

// testServices holds the application services wired over a registry with the software providers
type testServices struct {
	sub        *securemem.Subsystem
	registry   *provider.Registry
	catalog    *catalogService
	hashing    *hashingService
	inspection *keyInspectionService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	log := testutil.SetupTestLogger(t)
	sub := securemem.NewSubsystem()

	std, err := standard.NewProviderWithHeap(sub, log)
	require.NoError(t, err)
	post, err := pqc.NewProviderWithHeap(sub, log)
	require.NoError(t, err)

	registry := provider.NewRegistry(log)
	require.NoError(t, registry.AddProvider(std))
	require.NoError(t, registry.AddProvider(post))
	t.Cleanup(func() { _ = registry.Close() })

	parser, err := std.Parser()
	require.NoError(t, err)

	catalogSvc, err := NewCatalogService(registry, log)
	require.NoError(t, err)
	hashingSvc, err := NewHashingService(registry, log)
	require.NoError(t, err)
	inspectionSvc, err := NewKeyInspectionService(parser, registry, log)
	require.NoError(t, err)

	return &testServices{
		sub:        sub,
		registry:   registry,
		catalog:    catalogSvc.(*catalogService),
		hashing:    hashingSvc.(*hashingService),
		inspection: inspectionSvc.(*keyInspectionService),
	}
}
