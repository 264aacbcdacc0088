package crypto

// Algorithm names registered by the bundled providers.
const (
	AlgorithmAES              = "AES"
	AlgorithmChaCha20Poly1305 = "ChaCha20-Poly1305"
	AlgorithmRSA              = "RSA"
	AlgorithmECDSA            = "ECDSA"
	AlgorithmEd25519          = "Ed25519"
	AlgorithmK256             = "K256"
	AlgorithmDilithium        = "Dilithium"
	AlgorithmKyber            = "Kyber"
	AlgorithmSHA256           = "SHA-256"
	AlgorithmSHA512           = "SHA-512"
	AlgorithmSHA3256          = "SHA3-256"
	AlgorithmBLAKE2b256       = "BLAKE2b-256"
)

// AES key sizes in bits
const (
	AESKeySize128 = 128
	AESKeySize192 = 192
	AESKeySize256 = 256
)

// BlockMode selects the mode of operation of a block cipher.
type BlockMode string

// Supported block modes
const (
	BlockModeNone BlockMode = ""
	BlockModeCBC  BlockMode = "CBC"
	BlockModeGCM  BlockMode = "GCM"
	BlockModeCTR  BlockMode = "CTR"
)
