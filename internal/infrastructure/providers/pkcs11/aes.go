package pkcs11

import (
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/algorithm"
	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	"github.com/MGTheTrain/crypto-providers/internal/infrastructure/cryptography"
	"github.com/miekg/pkcs11"
	pkgerrors "github.com/pkg/errors"
)

// aesIVSize is the CBC IV length, one AES block
const aesIVSize = 16

func keepSpec(spec crypto.GenerationSpec) (crypto.GenerationSpec, error) {
	return spec, nil
}

func (p *Provider) aesAlgorithm() (*algorithm.Algorithm, error) {
	alg, err := algorithm.New(crypto.AlgorithmAES, algorithm.WithBlockModes(crypto.BlockModeCBC, crypto.BlockModeCBC))
	if err != nil {
		return nil, err
	}

	keygen, err := algorithm.NewKeyGeneratorBuilder[crypto.GenerationSpec](crypto.AlgorithmAES, crypto.PurposesSymmetric,
		crypto.AESKeySize256, crypto.AESKeySize128, crypto.AESKeySize192, crypto.AESKeySize256).
		Initializer(keepSpec).
		GenerateKey(p.generateAESKey).
		Build()
	if err != nil {
		return nil, err
	}

	cipher, err := algorithm.NewCipherBuilder[*Object](crypto.AlgorithmAES).
		Initializer(func(key *crypto.Key, _ crypto.BlockMode) (*Object, error) {
			return objectOf(key, pkcs11.CKO_SECRET_KEY)
		}).
		Encrypt(p.encryptCBC).
		Decrypt(p.decryptCBC).
		Build()
	if err != nil {
		return nil, err
	}

	if err := errors.Join(alg.AttachKeyGenerator(keygen), alg.AttachCipher(cipher)); err != nil {
		return nil, err
	}
	return alg, nil
}

func (p *Provider) generateAESKey(spec crypto.GenerationSpec) (*crypto.Key, error) {
	label := newLabel("cps-aes")
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_AES),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_ENCRYPT, spec.Purposes.Has(crypto.PurposeEncrypt)),
		pkcs11.NewAttribute(pkcs11.CKA_DECRYPT, spec.Purposes.Has(crypto.PurposeDecrypt)),
		pkcs11.NewAttribute(pkcs11.CKA_VALUE_LEN, spec.KeySize/8),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}

	var handle pkcs11.ObjectHandle
	err := p.withSession("generate AES key", func(m Module, s pkcs11.SessionHandle) error {
		var err error
		handle, err = m.GenerateKey(s, []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_KEY_GEN, nil)}, template)
		return pkgerrors.Wrap(err, "failed to generate AES key")
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info(fmt.Sprintf("Generated AES-%d token key %s", spec.KeySize, label))
	return objectKey(crypto.Attributes{
		Algorithm: crypto.AlgorithmAES,
		Purposes:  spec.Purposes,
		Type:      crypto.KeyTypeSecret,
		Size:      spec.KeySize,
	}, &Object{Handle: handle, Label: label, Class: pkcs11.CKO_SECRET_KEY})
}

// encryptCBC encrypts under CKM_AES_CBC_PAD with an IV drawn from the token and frames the IV in front.
func (p *Provider) encryptCBC(obj *Object, plaintext []byte) ([]byte, error) {
	var iv, ciphertext []byte
	err := p.withSession("encrypt", func(m Module, s pkcs11.SessionHandle) error {
		var err error
		if iv, err = m.GenerateRandom(s, aesIVSize); err != nil {
			return pkgerrors.Wrap(err, "failed to generate IV")
		}
		mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_CBC_PAD, iv)}
		if err := m.EncryptInit(s, mech, obj.Handle); err != nil {
			return pkgerrors.Wrap(err, "failed to initialize encryption")
		}
		ciphertext, err = m.Encrypt(s, plaintext)
		return pkgerrors.Wrap(err, "failed to encrypt")
	})
	if err != nil {
		return nil, err
	}
	return cryptography.FrameIV(iv, ciphertext), nil
}

func (p *Provider) decryptCBC(obj *Object, framed []byte) ([]byte, error) {
	iv, ciphertext, err := cryptography.SplitIV(framed, aesIVSize)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aesIVSize != 0 {
		return nil, fmt.Errorf("ciphertext of %d bytes is not a whole number of blocks: %w", len(ciphertext), crypto.ErrInvalidCiphertext)
	}

	var plaintext []byte
	err = p.withSession("decrypt", func(m Module, s pkcs11.SessionHandle) error {
		mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_AES_CBC_PAD, iv)}
		if err := m.DecryptInit(s, mech, obj.Handle); err != nil {
			return pkgerrors.Wrap(err, "failed to initialize decryption")
		}
		var err error
		plaintext, err = m.Decrypt(s, ciphertext)
		if isCode(err, pkcs11.CKR_ENCRYPTED_DATA_INVALID) || isCode(err, pkcs11.CKR_ENCRYPTED_DATA_LEN_RANGE) {
			return pkgerrors.Wrapf(crypto.ErrInvalidCiphertext, "token rejected ciphertext: %v", err)
		}
		return pkgerrors.Wrap(err, "failed to decrypt")
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
