package crypto

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks programmer errors such as registering a capability or provider twice.
	ErrConfiguration = errors.New("configuration error")
	// ErrDuplicateProvider is returned when a provider name is registered twice.
	ErrDuplicateProvider = errors.New("duplicate provider")
	// ErrUnsupportedPurpose is returned when a key or spec lacks the purpose an operation needs.
	ErrUnsupportedPurpose = errors.New("unsupported key purpose")
	// ErrAlgorithmMismatch is returned when a key belongs to another algorithm than expected.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")
	// ErrKeyFormatUnrecognized is returned when no known key encoding matched.
	ErrKeyFormatUnrecognized = errors.New("key format unrecognized")
	// ErrInvalidState is returned when a stateful session is used out of sequence.
	ErrInvalidState = errors.New("invalid state")
	// ErrBackendOperation is matched by every BackendOperationError.
	ErrBackendOperation = errors.New("backend operation failed")

	ErrUnsupportedKeySize     = errors.New("unsupported key size")
	ErrUnsupportedBlockMode   = errors.New("unsupported block mode")
	ErrOperationNotSupported  = errors.New("operation not supported")
	ErrCapabilityNotAvailable = errors.New("capability not available")
	ErrKeyDestroyed           = errors.New("key destroyed")
	ErrRegistryClosed         = errors.New("registry closed")
	ErrInvalidCiphertext      = errors.New("invalid ciphertext")
)

// ConfigurationError reports a wiring mistake detected while building algorithms or registries.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// DuplicateProviderError is returned when a provider with the same name is already registered.
type DuplicateProviderError struct {
	Name string
}

func (e *DuplicateProviderError) Error() string {
	return fmt.Sprintf("provider %q is already registered", e.Name)
}

// Is matches ErrDuplicateProvider and ErrConfiguration.
func (e *DuplicateProviderError) Is(target error) bool {
	return target == ErrDuplicateProvider || target == ErrConfiguration
}

// UnsupportedPurposeError is returned when the requested purposes are not covered by the available ones.
type UnsupportedPurposeError struct {
	Algorithm string
	Operation string
	Required  Purpose
	Available Purpose
}

func (e *UnsupportedPurposeError) Error() string {
	return fmt.Sprintf("%s %s requires purpose %s, key or algorithm allows %s", e.Algorithm, e.Operation, e.Required, e.Available)
}

// Is matches ErrUnsupportedPurpose.
func (e *UnsupportedPurposeError) Is(target error) bool {
	return target == ErrUnsupportedPurpose
}

// AlgorithmMismatchError is returned when a key's algorithm differs from the expected one.
type AlgorithmMismatchError struct {
	Expected string
	Actual   string
}

func (e *AlgorithmMismatchError) Error() string {
	return fmt.Sprintf("expected %s key, got %s", e.Expected, e.Actual)
}

// Is matches ErrAlgorithmMismatch.
func (e *AlgorithmMismatchError) Is(target error) bool {
	return target == ErrAlgorithmMismatch
}

// KeyFormatUnrecognizedError is returned when the key parser exhausted every known encoding.
type KeyFormatUnrecognizedError struct {
	Length int
}

func (e *KeyFormatUnrecognizedError) Error() string {
	return fmt.Sprintf("no known key encoding matched %d bytes of input", e.Length)
}

// Is matches ErrKeyFormatUnrecognized.
func (e *KeyFormatUnrecognizedError) Is(target error) bool {
	return target == ErrKeyFormatUnrecognized
}

// InvalidStateError is returned when an operation is invoked in the wrong session state.
type InvalidStateError struct {
	Operation string
	State     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Operation, e.State)
}

// Is matches ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// BackendOperationError carries a native backend failure verbatim.
type BackendOperationError struct {
	Backend   string
	Operation string
	Err       error
}

// NewBackendError wraps err, returning nil when err is nil.
func NewBackendError(backend, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendOperationError{Backend: backend, Operation: operation, Err: err}
}

func (e *BackendOperationError) Error() string {
	return fmt.Sprintf("%s backend failed to %s: %v", e.Backend, e.Operation, e.Err)
}

// Unwrap returns the backend error.
func (e *BackendOperationError) Unwrap() error {
	return e.Err
}

// Is matches ErrBackendOperation.
func (e *BackendOperationError) Is(target error) bool {
	return target == ErrBackendOperation
}
