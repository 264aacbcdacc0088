// Package cryptography implements the processors declared in domain/cryptoalg on top of the Go standard crypto
// packages, golang.org/x/crypto, minio/sha256-simd, secp256k1-voi and cloudflare/circl.
package cryptography
