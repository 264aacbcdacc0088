// Package catalog defines the discovery and hashing contracts served over the registry: which providers are
// registered, what each algorithm supports, and one-shot digests.
package catalog
