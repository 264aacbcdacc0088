package crypto

// GenerationSpec parameterizes key generation.
type GenerationSpec struct {
	// Purposes requested for the generated key; must be a subset of what the algorithm supports.
	Purposes Purpose
	// KeySize in bits. Zero selects the algorithm default.
	KeySize int
}

// NewGenerationSpec returns a spec using the algorithm default key size.
func NewGenerationSpec(purposes Purpose) GenerationSpec {
	return GenerationSpec{Purposes: purposes}
}

// WithKeySize returns a copy of s requesting size bits.
func (s GenerationSpec) WithKeySize(size int) GenerationSpec {
	s.KeySize = size
	return s
}
