package cryptoalg

// DigestProcessor computes lowercase hex digests for a fixed set of hash algorithms.
type DigestProcessor interface {
	// Algorithms lists the supported algorithm names.
	Algorithms() []string

	// Digest hashes data with the named algorithm.
	Digest(algorithm string, data []byte) (string, error)
}
