//go:build unit
// +build unit

package v1

import (
	"context"

	"github.com/MGTheTrain/crypto-providers/internal/domain/catalog"
	"github.com/MGTheTrain/crypto-providers/internal/domain/keys"
	"github.com/MGTheTrain/crypto-providers/internal/domain/provider"

	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Providers(ctx context.Context) ([]provider.Info, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Info), args.Error(1)
}

func (m *MockCatalogService) Algorithm(ctx context.Context, name string) (*catalog.AlgorithmInfo, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.AlgorithmInfo), args.Error(1)
}

// MockHashingService is a mock implementation of HashingService
type MockHashingService struct {
	mock.Mock
}

func (m *MockHashingService) Hash(ctx context.Context, algorithm string, data []byte) (string, error) {
	args := m.Called(ctx, algorithm, data)
	return args.String(0), args.Error(1)
}

// MockKeyInspectionService is a mock implementation of KeyInspectionService
type MockKeyInspectionService struct {
	mock.Mock
}

func (m *MockKeyInspectionService) Inspect(ctx context.Context, data []byte, expectedAlgorithm string) (*keys.KeyInfo, error) {
	args := m.Called(ctx, data, expectedAlgorithm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keys.KeyInfo), args.Error(1)
}
