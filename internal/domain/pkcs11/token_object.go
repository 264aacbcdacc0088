package pkcs11

// Object types reported in TokenObject.Type
const (
	ObjectTypeSecretKey  = "secrkey"
	ObjectTypePrivateKey = "privkey"
	ObjectTypePublicKey  = "pubkey"
)

// TokenObject represents a key object stored on a token
type TokenObject struct {
	Label string `mapstructure:"label" validate:"required"`
	// Type is one of the ObjectType constants
	Type string `mapstructure:"type" validate:"required,oneof=secrkey privkey pubkey"`
	// KeyType names the key algorithm, e.g. AES or EC
	KeyType string `mapstructure:"key_type" validate:"required"`
	Usage   string `mapstructure:"usage" validate:"required"`
	Access  string `mapstructure:"access" validate:"required"`
}

// Validate for validating TokenObject struct
func (t *TokenObject) Validate() error {
	return validateStruct(t)
}
