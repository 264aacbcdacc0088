// Package algorithm models a named Algorithm and its four optional capabilities: key generation, cipher,
// signature and hashing.
//
// Backends describe a capability with a typed builder (NewKeyGeneratorBuilder, NewCipherBuilder,
// NewSignatureBuilder, NewHasherBuilder) parameterized by their own context type. Build validates the wiring
// and returns an immutable delegate that is attached once to an Algorithm. Callers never see the backend
// context: they open sessions (KeyGenerator, KeyPairGenerator, Cipher, Signature, Hasher) which enforce key
// purposes before any backend code runs.
package algorithm
