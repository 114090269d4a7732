package model

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/revocation"
)

// Verification method types understood by the SDK.
const (
	EcdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
	Ed25519VerificationKey2018        = "Ed25519VerificationKey2018"
	MerkleKeyCollection2021           = "MerkleKeyCollection2021"
)

var (
	ErrNoKeyData                  = errors.New("model: verification method has no key data")
	ErrVerificationMethodNotFound = errors.New("model: verification method not found")
)

type DIDDocument struct {
	Context             []string                  `json:"@context"`
	ID                  string                    `json:"id"`
	VerificationMethod  []VerificationMethodEntry `json:"verificationMethod"`
	Authentication      []string                  `json:"authentication"`
	AssertionMethod     []string                  `json:"assertionMethod"`
	Controller          interface{}               `json:"controller"` // Can be string or []string
	DIDDocumentMetadata map[string]interface{}    `json:"didDocumentMetadata,omitempty"`
}

// FindVerificationMethod returns the method whose id is id, either absolute
// or a fragment like "#key-1" relative to the document.
func (d *DIDDocument) FindVerificationMethod(id string) (*VerificationMethodEntry, error) {
	for i := range d.VerificationMethod {
		vm := &d.VerificationMethod[i]
		if vm.ID == id || (strings.HasPrefix(id, "#") && vm.ID == d.ID+id) {
			return vm, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVerificationMethodNotFound, id)
}

// VerificationMethodEntry represents a single verification method in a DID Document.
type VerificationMethodEntry struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	// Revocation is the encoded set of revoked leaves of a Merkle key
	// collection, see revocation.Set.Encode.
	Revocation string `json:"revocation,omitempty"`
}

// KeyData decodes the public key material, trying base58, multibase and
// hex in that order.
func (vm *VerificationMethodEntry) KeyData() ([]byte, error) {
	switch {
	case vm.PublicKeyBase58 != "":
		data, err := base58.Decode(vm.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyBase58: %w", err)
		}
		return data, nil
	case vm.PublicKeyMultibase != "":
		_, data, err := multibase.Decode(vm.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyMultibase: %w", err)
		}
		return data, nil
	case vm.PublicKeyHex != "":
		data, err := hex.DecodeString(strings.TrimPrefix(vm.PublicKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyHex: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoKeyData, vm.ID)
	}
}

// RevocationSet decodes the revocation field. A missing field is an empty set.
func (vm *VerificationMethodEntry) RevocationSet() (*revocation.Set, error) {
	return revocation.Decode(vm.Revocation)
}

// SetRevocationSet stores set in the revocation field, clearing it when the
// set is empty.
func (vm *VerificationMethodEntry) SetRevocationSet(set *revocation.Set) error {
	if set.Len() == 0 {
		vm.Revocation = ""
		return nil
	}
	encoded, err := set.Encode()
	if err != nil {
		return err
	}
	vm.Revocation = encoded
	return nil
}

// JWK represents a JSON Web Key structure
type JWK struct {
	Kty string `json:"kty"` // Key type
	Crv string `json:"crv"` // Curve
	X   string `json:"x"`   // X coordinate
	Y   string `json:"y"`   // Y coordinate
}
