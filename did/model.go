package did

import (
	"github.com/pilacorp/go-merklekey-sdk/credential/common/keycollection"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
)

type DIDType string

const (
	TypeItem     DIDType = "item"
	TypePeople   DIDType = "people"
	TypeLocation DIDType = "location"
	TypeDefault  DIDType = "default"
)

// Fragments of the two verification methods of a generated document.
const (
	ControllerKeyFragment = "#key-1"
	MerkleKeyFragment     = "#merkle-key"
)

// KeyPair represents the generated controller wallet
type KeyPair struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

type CreateDID struct {
	Type     DIDType                `json:"type"`
	Metadata map[string]interface{} `json:"metadata"`
	Hash     string                 `json:"hash"`
}

// DIDDocument is a DID document as published by its controller. It
// encodes exactly like model.DIDDocument.
type DIDDocument struct {
	model.DIDDocument
}

// Model returns the resolver view of the document.
func (d *DIDDocument) Model() *model.DIDDocument {
	return &d.DIDDocument
}

type DID struct {
	DID      string      `json:"did"`
	Secret   Secret      `json:"secret"`
	Document DIDDocument `json:"document"`
	// Signature is the controller's hex signature over Document.Hash().
	Signature string `json:"signature"`
}

type Secret struct {
	PrivateKeyHex string `json:"privateKeyHex"`
	// KeyCollection holds the leaf private keys. It is never serialized.
	KeyCollection *keycollection.KeyCollection `json:"-"`
}
