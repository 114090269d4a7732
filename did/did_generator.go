package did

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/keycollection"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/logger"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
	"github.com/pilacorp/go-merklekey-sdk/did/config"
	"github.com/pilacorp/go-merklekey-sdk/did/signer"
)

// DefaultCollectionSize is the number of leaf keys of a generated DID.
const DefaultCollectionSize = 64

var (
	ErrNotMerkleKeyMethod       = errors.New("did: verification method is not a merkle key collection")
	ErrInvalidDocumentSignature = errors.New("did: invalid document signature")
)

// DIDGenerator creates DIDs backed by a Merkle key collection.
type DIDGenerator struct {
	didMethod      string
	digest         merklekey.DigestTag
	collectionSize int
	keyOpts        []keycollection.Option
	logger         *logger.Logger
}

// DIDOption configures a DIDGenerator.
type DIDOption func(*DIDGenerator)

// WithDigest sets the digest of generated Merkle keys.
func WithDigest(tag merklekey.DigestTag) DIDOption {
	return func(g *DIDGenerator) {
		g.digest = tag
	}
}

// WithCollectionSize sets how many leaf keys a generated DID holds.
func WithCollectionSize(n int) DIDOption {
	return func(g *DIDGenerator) {
		g.collectionSize = n
	}
}

// WithKeyCollectionOptions passes opts on to keycollection.New.
func WithKeyCollectionOptions(opts ...keycollection.Option) DIDOption {
	return func(g *DIDGenerator) {
		g.keyOpts = append(g.keyOpts, opts...)
	}
}

// WithLogger sets the logger of the generator and of its Verifier.
func WithLogger(l *logger.Logger) DIDOption {
	return func(g *DIDGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewDIDGenerator initializes a generator for method, such as
// "did:nda:testnet". An empty method and the digest default to the
// environment configuration.
func NewDIDGenerator(method string, opts ...DIDOption) *DIDGenerator {
	if method == "" {
		method = config.Method()
	}
	digest, err := merklekey.DigestTagFor(config.MerkleDigest())
	if err != nil {
		digest = merklekey.DigestTagSHA256
	}

	g := &DIDGenerator{
		didMethod:      method,
		digest:         digest,
		collectionSize: DefaultCollectionSize,
		keyOpts:        []keycollection.Option{keycollection.WithMaxSize(config.CollectionMaxSize())},
		logger:         logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewDIDGeneratorFromEnv is NewDIDGenerator for the configured method, logging
// through a logger built from LOG_ENV and LOG_PATH.
func NewDIDGeneratorFromEnv(opts ...DIDOption) (*DIDGenerator, error) {
	l, err := logger.NewLogger(config.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewDIDGenerator(config.Method(), append([]DIDOption{WithLogger(l)}, opts...)...), nil
}

// Verifier returns a Merkle key verifier that reports rejections to the
// generator's logger.
func (d *DIDGenerator) Verifier() *merklekey.Verifier {
	return merklekey.NewVerifier(merklekey.WithLogger(d.logger))
}

// GenerateDID creates a controller key and a key collection, publishes the
// collection root in a new DID document and signs the document with the
// controller key.
func (d *DIDGenerator) GenerateDID(ctx context.Context, newDID CreateDID) (*DID, error) {
	kc, err := keycollection.New(d.collectionSize, d.keyOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key collection: %w", err)
	}

	digest, err := merklekey.Digest(d.digest)
	if err != nil {
		return nil, err
	}
	root, err := kc.MerkleRoot(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to compute merkle root: %w", err)
	}
	mk := merklekey.EncodeKey(merklekey.SignatureTagEd25519, d.digest, root)

	controller, err := generateECDSAKeyPair()
	if err != nil {
		return nil, err
	}

	identifier := Identifier(d.didMethod, mk)
	doc := GenerateMerkleKeyDocument(identifier, controller.PublicKey, mk, &newDID)

	s, err := signer.NewDefaultSigner(controller.PrivateKey)
	if err != nil {
		return nil, err
	}
	signature, err := SignDocument(ctx, doc, s)
	if err != nil {
		return nil, err
	}

	d.logger.Info("generated DID", "did", identifier, "collection_size", kc.Len(), "digest", digest.Name())

	return &DID{
		DID: identifier,
		Secret: Secret{
			PrivateKeyHex: controller.PrivateKey,
			KeyCollection: kc,
		},
		Document:  *doc,
		Signature: signature,
	}, nil
}

// Identifier derives ${method}:${address} where address is the last 20
// bytes of keccak256(merkleKey).
func Identifier(method string, merkleKey []byte) string {
	address := common.BytesToAddress(crypto.Keccak256(merkleKey)).Hex()
	return strings.ToLower(fmt.Sprintf("%s:%s", method, address))
}

func generateECDSAKeyPair() (*KeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}

	return &KeyPair{
		Address:    strings.ToLower(crypto.PubkeyToAddress(*publicKeyECDSA).Hex()),
		PublicKey:  "0x" + hex.EncodeToString(crypto.CompressPubkey(publicKeyECDSA)),
		PrivateKey: "0x" + hex.EncodeToString(crypto.FromECDSA(privateKey)),
	}, nil
}

// GenerateMerkleKeyDocument builds the document of identifier with the
// controller key as #key-1 and the Merkle key as #merkle-key.
func GenerateMerkleKeyDocument(identifier, controllerPublicKeyHex string, merkleKey []byte, didReq *CreateDID) *DIDDocument {
	keyID := identifier + ControllerKeyFragment
	merkleID := identifier + MerkleKeyFragment

	document := &DIDDocument{model.DIDDocument{
		Context: []string{"https://w3id.org/security/v1",
			"https://www.w3.org/ns/did/v1"},
		ID:         identifier,
		Controller: identifier,
		VerificationMethod: []model.VerificationMethodEntry{
			{
				ID:           keyID,
				Type:         model.EcdsaSecp256k1VerificationKey2019,
				Controller:   identifier,
				PublicKeyHex: controllerPublicKeyHex,
			},
			{
				ID:              merkleID,
				Type:            model.MerkleKeyCollection2021,
				Controller:      identifier,
				PublicKeyBase58: base58.Encode(merkleKey),
			},
		},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID, merkleID},
	}}

	metadata := map[string]interface{}{}
	if didReq != nil {
		for k, v := range didReq.Metadata {
			metadata[k] = v
		}
		metadata["type"] = didReq.Type
		metadata["hash"] = didReq.Hash
	}
	document.DIDDocumentMetadata = metadata

	return document
}

// Hash returns keccak256 of the JCS form of the document.
func (d *DIDDocument) Hash() (common.Hash, error) {
	canonical, err := jsoncanonicalizer.Marshal(d)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to canonicalize DID document: %w", err)
	}
	return crypto.Keccak256Hash(canonical), nil
}

// RevokeKey adds leaf index to the revocation set of the Merkle key method
// vmID, given absolute or as a "#fragment". Re-sign the document afterwards.
func RevokeKey(doc *DIDDocument, vmID string, index uint32) error {
	vm, err := doc.FindVerificationMethod(vmID)
	if err != nil {
		return err
	}
	if vm.Type != model.MerkleKeyCollection2021 {
		return fmt.Errorf("%w: %s is %s", ErrNotMerkleKeyMethod, vm.ID, vm.Type)
	}

	set, err := vm.RevocationSet()
	if err != nil {
		return fmt.Errorf("failed to decode revocation set of %s: %w", vm.ID, err)
	}
	set.Insert(index)
	return vm.SetRevocationSet(set)
}

// SignDocument signs the document hash with the controller signer and
// returns the hex signature.
func SignDocument(ctx context.Context, doc *DIDDocument, s signer.Signer) (string, error) {
	hash, err := doc.Hash()
	if err != nil {
		return "", err
	}
	sig, err := s.Sign(ctx, hash.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to sign DID document: %w", err)
	}
	return "0x" + hex.EncodeToString(sig), nil
}

// VerifyDocumentSignature checks that signature was made over the document
// by its #key-1 controller key.
func VerifyDocumentSignature(doc *DIDDocument, signature string) error {
	vm, err := doc.FindVerificationMethod(ControllerKeyFragment)
	if err != nil {
		return err
	}
	keyData, err := vm.KeyData()
	if err != nil {
		return err
	}
	pub, err := crypto.DecompressPubkey(keyData)
	if err != nil {
		return fmt.Errorf("failed to decode controller key: %w", err)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentSignature, err)
	}
	hash, err := doc.Hash()
	if err != nil {
		return err
	}
	addr, err := signer.Recover(hash.Bytes(), sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentSignature, err)
	}
	if addr != crypto.PubkeyToAddress(*pub) {
		return ErrInvalidDocumentSignature
	}
	return nil
}

// SigningKey returns the signing key of leaf index of the DID's collection.
func (d *DID) SigningKey(index int) (*merklekey.SigningKey, error) {
	if d.Secret.KeyCollection == nil {
		return nil, fmt.Errorf("%w: no key collection", merklekey.ErrSignature)
	}
	vm, err := d.Document.FindVerificationMethod(MerkleKeyFragment)
	if err != nil {
		return nil, err
	}
	data, err := vm.KeyData()
	if err != nil {
		return nil, err
	}
	key, err := merklekey.DecodeKey(data)
	if err != nil {
		return nil, err
	}
	return merklekey.SigningKeyFromCollection(d.Secret.KeyCollection, key.Digest(), index)
}
