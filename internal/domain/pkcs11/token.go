package pkcs11

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Token represents a PKCS#11 token with its metadata
type Token struct {
	SlotID       uint   `mapstructure:"slot_id"`
	Label        string `mapstructure:"label" validate:"required"`
	Manufacturer string `mapstructure:"manufacturer" validate:"required"`
	Model        string `mapstructure:"model" validate:"required"`
	SerialNumber string `mapstructure:"serial_number" validate:"required"`
}

// Validate for validating Token struct
func (t *Token) Validate() error {
	return validateStruct(t)
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
