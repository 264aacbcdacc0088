package keys

import (
	"context"
)

// KeyInfo describes ingested key material. It never carries the material itself.
type KeyInfo struct {
	ID        string
	Algorithm string
	// Provider is the provider resolving Algorithm, empty when none is registered
	Provider    string
	Type        string
	Format      string
	Size        int
	Purposes    []string
	Fingerprint string
}

// KeyInspectionService defines methods for ingesting encoded key material.
type KeyInspectionService interface {
	// Inspect parses PEM or DER encoded key material and describes it. When expectedAlgorithm is set the key
	// must belong to it. The parsed key is destroyed before Inspect returns.
	Inspect(ctx context.Context, data []byte, expectedAlgorithm string) (*KeyInfo, error)
}
