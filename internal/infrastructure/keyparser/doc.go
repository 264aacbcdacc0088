// Package keyparser turns opaque key files into typed keys. It detects PEM and DER encodings of private and public
// keys, keeps private material in the secure heap, and offers PEM export and fingerprints for parsed or generated
// keys.
package keyparser
