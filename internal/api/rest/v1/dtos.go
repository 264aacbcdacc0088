package v1

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Encodings accepted by HashRequest
const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

// ErrorResponse represents an error message returned by the API
type ErrorResponse struct {
	Message string `json:"message"`
}

// ProviderResponse describes a registered provider
type ProviderResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Algorithms  []string `json:"algorithms"`
}

// KeyGenerationResponse describes the key generation capability of an algorithm
type KeyGenerationResponse struct {
	Purposes        []string `json:"purposes"`
	DefaultKeySize  int      `json:"default_key_size"`
	AllowedKeySizes []int    `json:"allowed_key_sizes,omitempty"`
	Asymmetric      bool     `json:"asymmetric"`
}

// AlgorithmResponse describes an algorithm and the provider it resolves to
type AlgorithmResponse struct {
	Name             string                 `json:"name"`
	Provider         string                 `json:"provider"`
	Capabilities     []string               `json:"capabilities"`
	BlockModes       []string               `json:"block_modes,omitempty"`
	DefaultBlockMode string                 `json:"default_block_mode,omitempty"`
	KeyGeneration    *KeyGenerationResponse `json:"key_generation,omitempty"`
}

// HashRequest carries the data to digest
type HashRequest struct {
	Data string `json:"data"`
	// Encoding of Data, utf8 when empty
	Encoding string `json:"encoding" validate:"omitempty,oneof=utf8 base64"`
}

// Validate for validating HashRequest struct
func (r *HashRequest) Validate() error {
	return validateStruct(r)
}

// HashResponse carries a lowercase hex digest
type HashResponse struct {
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
}

// KeyInfoResponse describes an inspected key
type KeyInfoResponse struct {
	ID          string   `json:"id"`
	Algorithm   string   `json:"algorithm"`
	Provider    string   `json:"provider,omitempty"`
	Type        string   `json:"type"`
	Format      string   `json:"format"`
	Size        int      `json:"size"`
	Purposes    []string `json:"purposes"`
	Fingerprint string   `json:"fingerprint,omitempty"`
}

func validateStruct(s any) error {
	validate := validator.New()

	err := validate.Struct(s)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var messages []string
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			return fmt.Errorf("validation failed: %v", messages)
		}
		return fmt.Errorf("validation error: %w", err)
	}

	return nil
}
