// Package pkcs11 holds the token inventory model of the PKCS#11 provider: the tokens present in the module's
// slots and the objects stored on them.
package pkcs11
