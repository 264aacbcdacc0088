// Package pkcs11 registers algorithms executed inside a PKCS#11 token. Keys generated here live on the token;
// the framework only holds object handles to them.
package pkcs11
