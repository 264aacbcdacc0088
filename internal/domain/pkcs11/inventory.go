package pkcs11

// Inventory lists what a PKCS#11 module exposes
type Inventory interface {
	// Tokens lists the tokens present in the module's slots
	Tokens() ([]Token, error)
	// Objects lists the key objects on the token the provider is logged in to
	Objects() ([]TokenObject, error)
}
