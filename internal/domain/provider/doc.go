// Package provider defines the Provider contract and the Registry that resolves algorithms across registered
// providers.
package provider
