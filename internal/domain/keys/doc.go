// Package keys defines the key inspection contract: ingesting externally encoded key material and describing it
// without exposing the material itself.
package keys
