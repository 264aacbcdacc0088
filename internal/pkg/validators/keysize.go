package validators

import (
	"slices"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/go-playground/validator/v10"
)

// KeySizeTag is the struct tag registered by RegisterKeySize.
const KeySizeTag = "keysize"

var allowedKeySizes = map[string][]uint64{
	crypto.AlgorithmAES:              {128, 192, 256},
	crypto.AlgorithmChaCha20Poly1305: {256},
	crypto.AlgorithmRSA:              {1024, 2048, 3072, 4096},
	crypto.AlgorithmECDSA:            {256, 384, 521},
	crypto.AlgorithmEd25519:          {256},
	crypto.AlgorithmK256:             {256},
}

// KeySizeValidation validates the key size based on the sibling Algorithm field. Zero selects the algorithm
// default and is always accepted. Algorithms with fixed sizes not listed here, such as Dilithium and Kyber, only
// accept zero.
func KeySizeValidation(fl validator.FieldLevel) bool {
	algorithm := fl.Parent().FieldByName("Algorithm").String()
	keySize := fl.Field().Uint()

	if keySize == 0 {
		return true
	}
	return slices.Contains(allowedKeySizes[algorithm], keySize)
}

// RegisterKeySize registers KeySizeValidation under KeySizeTag.
func RegisterKeySize(v *validator.Validate) error {
	return v.RegisterValidation(KeySizeTag, KeySizeValidation)
}
