// Package standard provides the general purpose provider: AES, ChaCha20-Poly1305, RSA, ECDSA, Ed25519, K256 and
// the SHA-2, SHA-3 and BLAKE2b hashers, together with the key parser sharing its secure heap.
package standard
