//go:build unit
// +build unit

package pkcs11

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/miekg/pkcs11"
)

type fakeObject struct {
	label   string
	class   uint
	keyType uint
	usage   map[uint]bool
	secret  []byte
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

type fakeOperation struct {
	attribute uint
	mech      *pkcs11.Mechanism
	object    *fakeObject
}

// fakeModule emulates a single-token PKCS#11 module in memory.
type fakeModule struct {
	mu sync.Mutex

	slots      map[uint]pkcs11.TokenInfo
	pin        string
	session    pkcs11.SessionHandle
	loggedIn   bool
	nextHandle pkcs11.ObjectHandle
	objects    map[pkcs11.ObjectHandle]*fakeObject
	operation  *fakeOperation
	found      []pkcs11.ObjectHandle
	calls      []string
}

func newFakeModule(pin string) *fakeModule {
	return &fakeModule{
		slots: map[uint]pkcs11.TokenInfo{
			0: {Label: "crypto-providers", ManufacturerID: "SoftHSM project", Model: "SoftHSM v2", SerialNumber: "6d3f2a1b9c7e4f10"},
			3: {Label: "backup", ManufacturerID: "SoftHSM project", Model: "SoftHSM v2", SerialNumber: "0a1b2c3d4e5f6071"},
		},
		pin:     pin,
		objects: map[pkcs11.ObjectHandle]*fakeObject{},
	}
}

func (f *fakeModule) loader() ModuleLoader {
	return func(string) (Module, error) { return f, nil }
}

func (f *fakeModule) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeModule) Initialize() error { f.record("Initialize"); return nil }
func (f *fakeModule) Finalize() error   { f.record("Finalize"); return nil }
func (f *fakeModule) Destroy()          { f.record("Destroy") }

func (f *fakeModule) GetSlotList(bool) ([]uint, error) {
	return []uint{0, 3}, nil
}

func (f *fakeModule) GetTokenInfo(slotID uint) (pkcs11.TokenInfo, error) {
	info, ok := f.slots[slotID]
	if !ok {
		return pkcs11.TokenInfo{}, pkcs11.Error(pkcs11.CKR_SLOT_ID_INVALID)
	}
	return info, nil
}

func (f *fakeModule) OpenSession(slotID uint, _ uint) (pkcs11.SessionHandle, error) {
	f.record("OpenSession")
	f.session = pkcs11.SessionHandle(slotID + 100)
	return f.session, nil
}

func (f *fakeModule) CloseSession(pkcs11.SessionHandle) error { f.record("CloseSession"); return nil }

func (f *fakeModule) Login(_ pkcs11.SessionHandle, _ uint, pin string) error {
	f.record("Login")
	if pin != f.pin {
		return pkcs11.Error(pkcs11.CKR_PIN_INCORRECT)
	}
	f.loggedIn = true
	return nil
}

func (f *fakeModule) Logout(pkcs11.SessionHandle) error {
	f.record("Logout")
	f.loggedIn = false
	return nil
}

func (f *fakeModule) GenerateRandom(_ pkcs11.SessionHandle, length int) ([]byte, error) {
	out := make([]byte, length)
	_, err := rand.Read(out)
	return out, err
}

func (f *fakeModule) store(obj *fakeObject, template []*pkcs11.Attribute) pkcs11.ObjectHandle {
	obj.usage = map[uint]bool{}
	for _, a := range template {
		switch a.Type {
		case pkcs11.CKA_LABEL:
			obj.label = string(a.Value)
		case pkcs11.CKA_CLASS:
			obj.class = ulongValue(a.Value)
		case pkcs11.CKA_KEY_TYPE:
			obj.keyType = ulongValue(a.Value)
		case pkcs11.CKA_ENCRYPT, pkcs11.CKA_DECRYPT, pkcs11.CKA_SIGN, pkcs11.CKA_VERIFY:
			obj.usage[a.Type] = len(a.Value) == 1 && a.Value[0] == 1
		}
	}
	f.nextHandle++
	f.objects[f.nextHandle] = obj
	return f.nextHandle
}

func (f *fakeModule) GenerateKey(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, temp []*pkcs11.Attribute) (pkcs11.ObjectHandle, error) {
	if len(m) != 1 || m[0].Mechanism != pkcs11.CKM_AES_KEY_GEN {
		return 0, pkcs11.Error(pkcs11.CKR_MECHANISM_INVALID)
	}
	size := 0
	for _, a := range temp {
		if a.Type == pkcs11.CKA_VALUE_LEN {
			size = int(ulongValue(a.Value))
		}
	}
	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return 0, err
	}
	return f.store(&fakeObject{secret: secret}, temp), nil
}

func (f *fakeModule) GenerateKeyPair(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, public, private []*pkcs11.Attribute) (pkcs11.ObjectHandle, pkcs11.ObjectHandle, error) {
	if len(m) != 1 || m[0].Mechanism != pkcs11.CKM_EC_KEY_PAIR_GEN {
		return 0, 0, pkcs11.Error(pkcs11.CKR_MECHANISM_INVALID)
	}
	for _, a := range public {
		if a.Type == pkcs11.CKA_EC_PARAMS && !bytes.Equal(a.Value, p256Params) {
			return 0, 0, pkcs11.Error(pkcs11.CKR_DOMAIN_PARAMS_INVALID)
		}
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return 0, 0, err
	}
	pub := f.store(&fakeObject{public: &key.PublicKey}, public)
	priv := f.store(&fakeObject{private: key}, private)
	return pub, priv, nil
}

func (f *fakeModule) DestroyObject(_ pkcs11.SessionHandle, oh pkcs11.ObjectHandle) error {
	if _, ok := f.objects[oh]; !ok {
		return pkcs11.Error(pkcs11.CKR_OBJECT_HANDLE_INVALID)
	}
	delete(f.objects, oh)
	return nil
}

func (f *fakeModule) begin(attribute uint, m []*pkcs11.Mechanism, oh pkcs11.ObjectHandle) error {
	if !f.loggedIn {
		return pkcs11.Error(pkcs11.CKR_USER_NOT_LOGGED_IN)
	}
	if f.operation != nil {
		return pkcs11.Error(pkcs11.CKR_OPERATION_ACTIVE)
	}
	obj, ok := f.objects[oh]
	if !ok {
		return pkcs11.Error(pkcs11.CKR_KEY_HANDLE_INVALID)
	}
	if !obj.usage[attribute] {
		return pkcs11.Error(pkcs11.CKR_KEY_FUNCTION_NOT_PERMITTED)
	}
	f.operation = &fakeOperation{attribute: attribute, mech: m[0], object: obj}
	return nil
}

func (f *fakeModule) finish(attribute uint) (*fakeOperation, error) {
	op := f.operation
	f.operation = nil
	if op == nil || op.attribute != attribute {
		return nil, pkcs11.Error(pkcs11.CKR_OPERATION_NOT_INITIALIZED)
	}
	return op, nil
}

func (f *fakeModule) EncryptInit(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, o pkcs11.ObjectHandle) error {
	return f.begin(pkcs11.CKA_ENCRYPT, m, o)
}

func (f *fakeModule) Encrypt(_ pkcs11.SessionHandle, message []byte) ([]byte, error) {
	op, err := f.finish(pkcs11.CKA_ENCRYPT)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(op.object.secret)
	if err != nil {
		return nil, err
	}
	pad := aes.BlockSize - len(message)%aes.BlockSize
	padded := append(append([]byte{}, message...), bytes.Repeat([]byte{byte(pad)}, pad)...)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, op.mech.Parameter).CryptBlocks(out, padded)
	return out, nil
}

func (f *fakeModule) DecryptInit(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, o pkcs11.ObjectHandle) error {
	return f.begin(pkcs11.CKA_DECRYPT, m, o)
}

func (f *fakeModule) Decrypt(_ pkcs11.SessionHandle, cypher []byte) ([]byte, error) {
	op, err := f.finish(pkcs11.CKA_DECRYPT)
	if err != nil {
		return nil, err
	}
	if len(cypher) == 0 || len(cypher)%aes.BlockSize != 0 {
		return nil, pkcs11.Error(pkcs11.CKR_ENCRYPTED_DATA_LEN_RANGE)
	}
	block, err := aes.NewCipher(op.object.secret)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(cypher))
	cipher.NewCBCDecrypter(block, op.mech.Parameter).CryptBlocks(out, cypher)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize || !bytes.Equal(out[len(out)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		return nil, pkcs11.Error(pkcs11.CKR_ENCRYPTED_DATA_INVALID)
	}
	return out[:len(out)-pad], nil
}

func (f *fakeModule) SignInit(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, o pkcs11.ObjectHandle) error {
	return f.begin(pkcs11.CKA_SIGN, m, o)
}

func (f *fakeModule) Sign(_ pkcs11.SessionHandle, message []byte) ([]byte, error) {
	op, err := f.finish(pkcs11.CKA_SIGN)
	if err != nil {
		return nil, err
	}
	r, s, err := ecdsa.Sign(rand.Reader, op.object.private, message)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 2*p256ScalarSize)
	r.FillBytes(out[:p256ScalarSize])
	s.FillBytes(out[p256ScalarSize:])
	return out, nil
}

func (f *fakeModule) VerifyInit(_ pkcs11.SessionHandle, m []*pkcs11.Mechanism, key pkcs11.ObjectHandle) error {
	return f.begin(pkcs11.CKA_VERIFY, m, key)
}

func (f *fakeModule) Verify(_ pkcs11.SessionHandle, data []byte, signature []byte) error {
	op, err := f.finish(pkcs11.CKA_VERIFY)
	if err != nil {
		return err
	}
	if len(signature) != 2*p256ScalarSize {
		return pkcs11.Error(pkcs11.CKR_SIGNATURE_LEN_RANGE)
	}
	r := new(big.Int).SetBytes(signature[:p256ScalarSize])
	s := new(big.Int).SetBytes(signature[p256ScalarSize:])
	if !ecdsa.Verify(op.object.public, data, r, s) {
		return pkcs11.Error(pkcs11.CKR_SIGNATURE_INVALID)
	}
	return nil
}

func (f *fakeModule) FindObjectsInit(_ pkcs11.SessionHandle, temp []*pkcs11.Attribute) error {
	f.found = f.found[:0]
	for h, obj := range f.objects {
		if matches(obj, temp) {
			f.found = append(f.found, h)
		}
	}
	return nil
}

func matches(obj *fakeObject, template []*pkcs11.Attribute) bool {
	for _, a := range template {
		switch a.Type {
		case pkcs11.CKA_LABEL:
			if obj.label != string(a.Value) {
				return false
			}
		case pkcs11.CKA_CLASS:
			if obj.class != ulongValue(a.Value) {
				return false
			}
		}
	}
	return true
}

func (f *fakeModule) FindObjects(_ pkcs11.SessionHandle, max int) ([]pkcs11.ObjectHandle, bool, error) {
	n := min(max, len(f.found))
	batch := f.found[:n]
	f.found = f.found[n:]
	return batch, false, nil
}

func (f *fakeModule) FindObjectsFinal(pkcs11.SessionHandle) error { return nil }

func (f *fakeModule) GetAttributeValue(_ pkcs11.SessionHandle, o pkcs11.ObjectHandle, a []*pkcs11.Attribute) ([]*pkcs11.Attribute, error) {
	obj, ok := f.objects[o]
	if !ok {
		return nil, pkcs11.Error(pkcs11.CKR_OBJECT_HANDLE_INVALID)
	}
	out := make([]*pkcs11.Attribute, 0, len(a))
	for _, attr := range a {
		switch attr.Type {
		case pkcs11.CKA_LABEL:
			out = append(out, pkcs11.NewAttribute(attr.Type, obj.label))
		case pkcs11.CKA_CLASS:
			out = append(out, pkcs11.NewAttribute(attr.Type, obj.class))
		case pkcs11.CKA_KEY_TYPE:
			out = append(out, pkcs11.NewAttribute(attr.Type, obj.keyType))
		case pkcs11.CKA_VALUE_LEN:
			out = append(out, pkcs11.NewAttribute(attr.Type, len(obj.secret)))
		case pkcs11.CKA_ENCRYPT, pkcs11.CKA_DECRYPT, pkcs11.CKA_SIGN, pkcs11.CKA_VERIFY:
			out = append(out, pkcs11.NewAttribute(attr.Type, obj.usage[attr.Type]))
		default:
			return nil, pkcs11.Error(pkcs11.CKR_ATTRIBUTE_TYPE_INVALID)
		}
	}
	return out, nil
}

func (f *fakeModule) objectByLabel(label string, class uint) *fakeObject {
	for _, obj := range f.objects {
		if obj.label == label && obj.class == class {
			return obj
		}
	}
	return nil
}
