//go:build unit
// +build unit

package validators

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyRequest struct {
	Algorithm string
	KeySize   uint `validate:"keysize"`
}

func TestKeySizeValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterKeySize(v))

	tests := []struct {
		algorithm string
		size      uint
		valid     bool
	}{
		{"AES", 256, true},
		{"AES", 512, false},
		{"RSA", 2048, true},
		{"RSA", 512, false},
		{"ECDSA", 521, true},
		{"ECDSA", 224, false},
		{"Ed25519", 256, true},
		{"Dilithium", 0, true},
		{"Dilithium", 256, false},
		{"unknown", 128, false},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			err := v.Struct(keyRequest{Algorithm: tt.algorithm, KeySize: tt.size})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
