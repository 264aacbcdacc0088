package pkcs11

import (
	"fmt"
	"strings"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
	domain "github.com/MGTheTrain/crypto-providers/internal/domain/pkcs11"
	"github.com/google/uuid"
	"github.com/miekg/pkcs11"
	"github.com/pkg/errors"
)

// findBatch is the number of handles fetched per FindObjects call
const findBatch = 64

// Object references a key object on the token. It is the native reference held by keys of this provider.
type Object struct {
	Handle pkcs11.ObjectHandle
	Label  string
	Class  uint
}

var _ domain.Inventory = (*Provider)(nil)

func newLabel(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func objectKey(attrs crypto.Attributes, obj *Object) (*crypto.Key, error) {
	attrs.Format = crypto.FormatNative
	return crypto.NewNativeKey(attrs, obj)
}

// objectOf returns the token object behind key, checking it has the expected class.
func objectOf(key *crypto.Key, class uint) (*Object, error) {
	native, err := key.Native()
	if err != nil {
		return nil, err
	}
	obj, ok := native.(*Object)
	if !ok {
		return nil, fmt.Errorf("%s key is not token-resident: %w", key.Algorithm(), crypto.ErrOperationNotSupported)
	}
	if obj.Class != class {
		return nil, fmt.Errorf("%s object %q has class %s, expected %s: %w",
			key.Algorithm(), obj.Label, className(obj.Class), className(class), crypto.ErrOperationNotSupported)
	}
	return obj, nil
}

// Key opens the token object labelled label as a key of the given type. The key references the object without
// owning it.
func (p *Provider) Key(label string, keyType crypto.KeyType) (*crypto.Key, error) {
	class, usage, err := classFor(keyType)
	if err != nil {
		return nil, err
	}

	var (
		handle pkcs11.ObjectHandle
		values []*pkcs11.Attribute
	)
	err = p.withSession("open key", func(m Module, s pkcs11.SessionHandle) error {
		handles, err := findAll(m, s, []*pkcs11.Attribute{
			pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
			pkcs11.NewAttribute(pkcs11.CKA_CLASS, class),
		})
		if err != nil {
			return err
		}
		if len(handles) != 1 {
			return errors.Errorf("found %d %s objects labelled %q", len(handles), className(class), label)
		}
		handle = handles[0]

		template := []*pkcs11.Attribute{pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil)}
		if class == pkcs11.CKO_SECRET_KEY {
			template = append(template, pkcs11.NewAttribute(pkcs11.CKA_VALUE_LEN, nil))
		}
		for attr := range usage {
			template = append(template, pkcs11.NewAttribute(attr, nil))
		}
		values, err = m.GetAttributeValue(s, handle, template)
		return errors.Wrapf(err, "failed to read attributes of %q", label)
	})
	if err != nil {
		return nil, err
	}

	attrs := crypto.Attributes{Type: keyType}
	for _, v := range values {
		switch v.Type {
		case pkcs11.CKA_KEY_TYPE:
			switch ulongValue(v.Value) {
			case pkcs11.CKK_AES:
				attrs.Algorithm = crypto.AlgorithmAES
			case pkcs11.CKK_EC:
				attrs.Algorithm, attrs.Size = crypto.AlgorithmECDSA, p256KeySize
			default:
				return nil, fmt.Errorf("token object %q has key type %s: %w",
					label, keyTypeName(ulongValue(v.Value)), crypto.ErrOperationNotSupported)
			}
		case pkcs11.CKA_VALUE_LEN:
			attrs.Size = int(ulongValue(v.Value)) * 8
		default:
			if purpose, ok := usage[v.Type]; ok && len(v.Value) == 1 && v.Value[0] != 0 {
				attrs.Purposes |= purpose
			}
		}
	}
	return objectKey(attrs, &Object{Handle: handle, Label: label, Class: class})
}

// classFor returns the object class of keyType and the usage attributes mapping to purposes.
func classFor(keyType crypto.KeyType) (uint, map[uint]crypto.Purpose, error) {
	switch keyType {
	case crypto.KeyTypeSecret:
		return pkcs11.CKO_SECRET_KEY, map[uint]crypto.Purpose{
			pkcs11.CKA_ENCRYPT: crypto.PurposeEncrypt,
			pkcs11.CKA_DECRYPT: crypto.PurposeDecrypt,
		}, nil
	case crypto.KeyTypePrivate:
		return pkcs11.CKO_PRIVATE_KEY, map[uint]crypto.Purpose{pkcs11.CKA_SIGN: crypto.PurposeSigning}, nil
	case crypto.KeyTypePublic:
		return pkcs11.CKO_PUBLIC_KEY, map[uint]crypto.Purpose{pkcs11.CKA_VERIFY: crypto.PurposeVerify}, nil
	default:
		return 0, nil, fmt.Errorf("unknown key type %q: %w", keyType, crypto.ErrOperationNotSupported)
	}
}

// DeleteKey removes the object behind key from the token and destroys the key.
func (p *Provider) DeleteKey(key *crypto.Key) error {
	native, err := key.Native()
	if err != nil {
		return err
	}
	obj, ok := native.(*Object)
	if !ok {
		return fmt.Errorf("%s key is not token-resident: %w", key.Algorithm(), crypto.ErrOperationNotSupported)
	}

	err = p.withSession("delete object", func(m Module, s pkcs11.SessionHandle) error {
		return errors.Wrapf(m.DestroyObject(s, obj.Handle), "failed to destroy object %q", obj.Label)
	})
	if err != nil {
		return err
	}
	key.Destroy()
	p.logger.Info(fmt.Sprintf("Deleted token object %s", obj.Label))
	return nil
}

// Tokens lists the tokens present in the module's slots. Tokens with incomplete metadata are skipped.
func (p *Provider) Tokens() ([]domain.Token, error) {
	var tokens []domain.Token
	err := p.withSession("list tokens", func(m Module, _ pkcs11.SessionHandle) error {
		slots, err := m.GetSlotList(true)
		if err != nil {
			return errors.Wrap(err, "failed to get slot list")
		}
		for _, slot := range slots {
			info, err := m.GetTokenInfo(slot)
			if err != nil {
				return errors.Wrapf(err, "failed to get token info for slot %d", slot)
			}
			token := domain.Token{
				SlotID:       slot,
				Label:        strings.TrimSpace(info.Label),
				Manufacturer: strings.TrimSpace(info.ManufacturerID),
				Model:        strings.TrimSpace(info.Model),
				SerialNumber: strings.TrimSpace(info.SerialNumber),
			}
			if err := token.Validate(); err != nil {
				p.logger.Warn(fmt.Sprintf("Skipping token in slot %d: %v", slot, err))
				continue
			}
			tokens = append(tokens, token)
		}
		return nil
	})
	return tokens, err
}

// Objects lists the key objects on the logged-in token.
func (p *Provider) Objects() ([]domain.TokenObject, error) {
	var objects []domain.TokenObject
	err := p.withSession("list objects", func(m Module, s pkcs11.SessionHandle) error {
		handles, err := findAll(m, s, []*pkcs11.Attribute{pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true)})
		if err != nil {
			return err
		}

		for _, h := range handles {
			attrs, err := m.GetAttributeValue(s, h, []*pkcs11.Attribute{
				pkcs11.NewAttribute(pkcs11.CKA_LABEL, nil),
				pkcs11.NewAttribute(pkcs11.CKA_CLASS, nil),
				pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil),
			})
			if err != nil {
				return errors.Wrapf(err, "failed to read attributes of object %d", h)
			}

			obj, ok := describeObject(attrs)
			if !ok {
				continue
			}
			if err := obj.Validate(); err != nil {
				p.logger.Warn(fmt.Sprintf("Skipping token object %d: %v", h, err))
				continue
			}
			objects = append(objects, obj)
		}
		return nil
	})
	return objects, err
}

func findAll(m Module, s pkcs11.SessionHandle, template []*pkcs11.Attribute) ([]pkcs11.ObjectHandle, error) {
	if err := m.FindObjectsInit(s, template); err != nil {
		return nil, errors.Wrap(err, "failed to initialize object search")
	}

	var handles []pkcs11.ObjectHandle
	for {
		batch, _, err := m.FindObjects(s, findBatch)
		if err != nil {
			_ = m.FindObjectsFinal(s)
			return nil, errors.Wrap(err, "failed to find objects")
		}
		if len(batch) == 0 {
			break
		}
		handles = append(handles, batch...)
	}

	if err := m.FindObjectsFinal(s); err != nil {
		return nil, errors.Wrap(err, "failed to finalize object search")
	}
	return handles, nil
}

// describeObject maps token attributes to a TokenObject. Objects that are not keys are skipped.
func describeObject(attrs []*pkcs11.Attribute) (domain.TokenObject, bool) {
	var obj domain.TokenObject
	class := ^uint(0)
	for _, a := range attrs {
		switch a.Type {
		case pkcs11.CKA_LABEL:
			obj.Label = string(a.Value)
		case pkcs11.CKA_CLASS:
			class = ulongValue(a.Value)
		case pkcs11.CKA_KEY_TYPE:
			obj.KeyType = keyTypeName(ulongValue(a.Value))
		}
	}

	switch class {
	case pkcs11.CKO_SECRET_KEY:
		obj.Type, obj.Usage, obj.Access = domain.ObjectTypeSecretKey, "encrypt,decrypt", "sensitive"
	case pkcs11.CKO_PRIVATE_KEY:
		obj.Type, obj.Usage, obj.Access = domain.ObjectTypePrivateKey, "sign", "sensitive"
	case pkcs11.CKO_PUBLIC_KEY:
		obj.Type, obj.Usage, obj.Access = domain.ObjectTypePublicKey, "verify", "public"
	default:
		return obj, false
	}
	return obj, true
}

func keyTypeName(kt uint) string {
	switch kt {
	case pkcs11.CKK_AES:
		return "AES"
	case pkcs11.CKK_EC:
		return "EC"
	case pkcs11.CKK_RSA:
		return "RSA"
	default:
		return fmt.Sprintf("0x%x", kt)
	}
}

func className(class uint) string {
	switch class {
	case pkcs11.CKO_SECRET_KEY:
		return domain.ObjectTypeSecretKey
	case pkcs11.CKO_PRIVATE_KEY:
		return domain.ObjectTypePrivateKey
	case pkcs11.CKO_PUBLIC_KEY:
		return domain.ObjectTypePublicKey
	default:
		return fmt.Sprintf("0x%x", class)
	}
}
