package cryptography

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"

	cryptoDomain "github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/domain/cryptoalg"
	"github.com/MGTheTrain/crypto-providers/internal/pkg/logger"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var digestConstructors = []struct {
	name string
	new  func() hash.Hash
}{
	{cryptoDomain.AlgorithmSHA256, sha256.New},
	{cryptoDomain.AlgorithmSHA512, sha512.New},
	{cryptoDomain.AlgorithmSHA3256, sha3.New256},
	{cryptoDomain.AlgorithmBLAKE2b256, func() hash.Hash {
		h, _ := blake2b.New256(nil) // only fails for oversized keys
		return h
	}},
}

type digestProcessor struct {
	logger logger.Logger
}

// NewDigestProcessor creates a processor for SHA-256, SHA-512, SHA3-256 and BLAKE2b-256.
func NewDigestProcessor(logger logger.Logger) (cryptoalg.DigestProcessor, error) {
	return &digestProcessor{logger: logger}, nil
}

func (d *digestProcessor) Algorithms() []string {
	names := make([]string, 0, len(digestConstructors))
	for _, c := range digestConstructors {
		names = append(names, c.name)
	}
	return names
}

func (d *digestProcessor) Digest(algorithm string, data []byte) (string, error) {
	for _, c := range digestConstructors {
		if c.name != algorithm {
			continue
		}
		h := c.new()
		h.Write(data)
		d.logger.Debug(fmt.Sprintf("%s digest of %d bytes computed", algorithm, len(data)))
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	return "", fmt.Errorf("digest %s: %w", algorithm, cryptoDomain.ErrOperationNotSupported)
}
