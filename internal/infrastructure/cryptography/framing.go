package cryptography

import (
	"encoding/binary"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// ivLengthSize is the size of the big-endian IV length prefix.
const ivLengthSize = 4

// FrameIV lays out iv and ciphertext as [4-byte big-endian len(iv)][iv][ciphertext].
func FrameIV(iv, ciphertext []byte) []byte {
	out := make([]byte, ivLengthSize+len(iv)+len(ciphertext))
	binary.BigEndian.PutUint32(out, uint32(len(iv)))
	copy(out[ivLengthSize:], iv)
	copy(out[ivLengthSize+len(iv):], ciphertext)
	return out
}

// SplitIV reverses FrameIV. expectedIVLen, when positive, must match the encoded length.
func SplitIV(framed []byte, expectedIVLen int) (iv, ciphertext []byte, err error) {
	if len(framed) < ivLengthSize {
		return nil, nil, fmt.Errorf("frame of %d bytes is shorter than the length prefix: %w", len(framed), crypto.ErrInvalidCiphertext)
	}

	ivLen := binary.BigEndian.Uint32(framed)
	if uint64(ivLen) > uint64(len(framed)-ivLengthSize) {
		return nil, nil, fmt.Errorf("IV length %d exceeds frame: %w", ivLen, crypto.ErrInvalidCiphertext)
	}
	if expectedIVLen > 0 && int(ivLen) != expectedIVLen {
		return nil, nil, fmt.Errorf("IV length %d, expected %d: %w", ivLen, expectedIVLen, crypto.ErrInvalidCiphertext)
	}

	iv = framed[ivLengthSize : ivLengthSize+int(ivLen)]
	ciphertext = framed[ivLengthSize+int(ivLen):]
	return iv, ciphertext, nil
}
