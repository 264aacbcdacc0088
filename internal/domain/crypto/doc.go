// Package crypto defines the key model shared by every provider: purposes, key formats and types, the Key and
// KeyPair containers for secret or native key material, generation specs, block modes and the error taxonomy.
package crypto
