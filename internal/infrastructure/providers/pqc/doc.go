// Package pqc provides the post-quantum provider backed by cloudflare/circl: Dilithium (ML-DSA-65) signatures and
// Kyber768 hybrid encryption.
package pqc
