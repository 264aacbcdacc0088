package crypto

import (
	"fmt"
	"strings"
)

// Purpose is a set of operations a key is authorized for.
type Purpose uint8

// Purpose bits. The values are part of the persisted key metadata and must not change.
const (
	PurposeEncrypt Purpose = 1 << iota
	PurposeDecrypt
	PurposeVerify
	PurposeSigning

	PurposeNone       Purpose = 0
	PurposeAll                = PurposeEncrypt | PurposeDecrypt | PurposeVerify | PurposeSigning
	PurposesSymmetric         = PurposeEncrypt | PurposeDecrypt
	PurposesSignature         = PurposeSigning | PurposeVerify
)

var purposeNames = []struct {
	bit  Purpose
	name string
}{
	{PurposeEncrypt, "encrypt"},
	{PurposeDecrypt, "decrypt"},
	{PurposeVerify, "verify"},
	{PurposeSigning, "sign"},
}

// Has reports whether every bit of other is set in p.
func (p Purpose) Has(other Purpose) bool {
	return p&other == other
}

// HasAny reports whether p shares at least one bit with other.
func (p Purpose) HasAny(other Purpose) bool {
	return p&other != 0
}

// SubsetOf reports whether p only carries bits that are also in other.
func (p Purpose) SubsetOf(other Purpose) bool {
	return p&^other == 0
}

// Intersect returns the bits present in both p and other.
func (p Purpose) Intersect(other Purpose) Purpose {
	return p & other
}

// Valid reports whether p only uses defined bits.
func (p Purpose) Valid() bool {
	return p.SubsetOf(PurposeAll)
}

// Names returns the lower case names of the set bits in bit order.
func (p Purpose) Names() []string {
	names := make([]string, 0, len(purposeNames))
	for _, pn := range purposeNames {
		if p.Has(pn.bit) {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Purpose) String() string {
	if p == PurposeNone {
		return "none"
	}
	return strings.Join(p.Names(), "|")
}

// ParsePurposes parses names such as "encrypt", "decrypt", "sign", "verify" and "all".
func ParsePurposes(names ...string) (Purpose, error) {
	var p Purpose
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name == "all" {
			p |= PurposeAll
			continue
		}
		if name == "signing" {
			name = "sign"
		}

		found := false
		for _, pn := range purposeNames {
			if pn.name == name {
				p |= pn.bit
				found = true
				break
			}
		}
		if !found {
			return PurposeNone, fmt.Errorf("unknown key purpose %q", raw)
		}
	}
	return p, nil
}
