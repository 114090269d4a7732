package jsonmap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"

	sdkcrypto "github.com/pilacorp/go-merklekey-sdk/credential/common/crypto"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/dto"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/keycollection"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/provider"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/revocation"
	verificationmethod "github.com/pilacorp/go-merklekey-sdk/credential/common/verification-method"
)

const issuer = "did:example:issuer"

type issuerKeys struct {
	kc       *keycollection.KeyCollection
	vkey     *merklekey.VerificationKey
	edPub    ed25519.PublicKey
	edPriv   ed25519.PrivateKey
	ecPriv   string
	doc      *model.DIDDocument
	resolver *verificationmethod.Resolver
}

func newIssuer(t *testing.T) *issuerKeys {
	t.Helper()

	kc, err := keycollection.New(8)
	require.NoError(t, err)
	root, err := kc.MerkleRoot(merkle.SHA256)
	require.NoError(t, err)
	mk := merklekey.EncodeKey(merklekey.SignatureTagEd25519, merklekey.DigestTagSHA256, root)

	edPub, edPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	ecKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	doc := &model.DIDDocument{
		ID: issuer,
		VerificationMethod: []model.VerificationMethodEntry{
			{ID: issuer + "#key-1", Type: model.EcdsaSecp256k1VerificationKey2019, Controller: issuer,
				PublicKeyHex: hex.EncodeToString(crypto.CompressPubkey(&ecKey.PublicKey))},
			{ID: issuer + "#merkle-key", Type: model.MerkleKeyCollection2021, Controller: issuer,
				PublicKeyBase58: base58.Encode(mk)},
			{ID: issuer + "#ed-key", Type: model.Ed25519VerificationKey2018, Controller: issuer,
				PublicKeyBase58: base58.Encode(edPub)},
		},
	}

	return &issuerKeys{
		kc:       kc,
		vkey:     merklekey.NewVerificationKey(mk),
		edPub:    edPub,
		edPriv:   edPriv,
		ecPriv:   hex.EncodeToString(crypto.FromECDSA(ecKey)),
		doc:      doc,
		resolver: verificationmethod.NewResolver("", verificationmethod.WithProvider(provider.NewStaticProvider(doc))),
	}
}

func (k *issuerKeys) signingKey(t *testing.T, index int) *merklekey.SigningKey {
	t.Helper()
	sk, err := merklekey.SigningKeyFromCollection(k.kc, merkle.SHA256, index)
	require.NoError(t, err)
	return sk
}

func newCredential() JSONMap {
	return JSONMap{
		"@context": map[string]interface{}{"@vocab": "https://example.org/"},
		"id":       "https://example.org/credentials/1",
		"issuer":   issuer,
		"credentialSubject": map[string]interface{}{
			"id":     "did:example:holder",
			"degree": "BSc",
			"score":  97.5,
		},
	}
}

// roundTrip simulates sending the document over the wire.
func roundTrip(t *testing.T, m JSONMap) JSONMap {
	t.Helper()
	data, err := m.ToJSON()
	require.NoError(t, err)
	var out JSONMap
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestMerkleKeyProof(t *testing.T) {
	keys := newIssuer(t)
	cred := newCredential()

	require.NoError(t, cred.AddMerkleKeyProof(keys.signingKey(t, 5), issuer+"#merkle-key", "assertionMethod"))

	proof, err := ParseRawToProof(cred["proof"])
	require.NoError(t, err)
	assert.Equal(t, merklekey.SignatureType, proof.Type)
	assert.NotEmpty(t, proof.SignatureValue)

	require.NoError(t, cred.VerifyMerkleKeyProof(keys.vkey))

	received := roundTrip(t, cred)
	require.NoError(t, received.VerifyMerkleKeyProof(keys.vkey))
	require.NoError(t, received.VerifyProof(context.Background(), keys.resolver))

	t.Run("tampered subject", func(t *testing.T) {
		tampered := roundTrip(t, cred)
		tampered["credentialSubject"].(map[string]interface{})["degree"] = "PhD"
		assert.ErrorIs(t, tampered.VerifyMerkleKeyProof(keys.vkey), merklekey.ErrInvalidSignature)
	})

	t.Run("tampered proof purpose", func(t *testing.T) {
		tampered := roundTrip(t, cred)
		tampered["proof"].(map[string]interface{})["proofPurpose"] = "authentication"
		assert.ErrorIs(t, tampered.VerifyMerkleKeyProof(keys.vkey), merklekey.ErrInvalidSignature)
	})

	t.Run("revoked leaf", func(t *testing.T) {
		err := received.VerifyMerkleKeyProof(keys.vkey.WithRevocation(revocation.NewSet(5)))
		assert.ErrorIs(t, err, merklekey.ErrInvalidSignature)
	})
}

func TestVerifyProofHonoursDocumentRevocation(t *testing.T) {
	keys := newIssuer(t)
	cred := newCredential()
	require.NoError(t, cred.AddMerkleKeyProof(keys.signingKey(t, 2), issuer+"#merkle-key", "assertionMethod"))

	require.NoError(t, keys.doc.VerificationMethod[1].SetRevocationSet(revocation.NewSet(2)))
	err := cred.VerifyProof(context.Background(), keys.resolver)
	assert.ErrorIs(t, err, merklekey.ErrInvalidSignature)
}

func TestJcsEd25519Proof(t *testing.T) {
	keys := newIssuer(t)
	cred := newCredential()

	require.NoError(t, cred.AddJcsEd25519Proof(keys.edPriv, issuer+"#ed-key", "assertionMethod"))
	received := roundTrip(t, cred)

	require.NoError(t, received.VerifyJcsEd25519Proof(keys.edPub))
	require.NoError(t, received.VerifyProof(context.Background(), keys.resolver))

	received["issuer"] = "did:example:other"
	assert.ErrorIs(t, received.VerifyJcsEd25519Proof(keys.edPub), sdkcrypto.ErrInvalidJcsEd25519Signature)

	assert.ErrorIs(t, received.VerifyMerkleKeyProof(keys.vkey), ErrInvalidProof, "proof type must match")
}

func TestECDSAProof(t *testing.T) {
	keys := newIssuer(t)
	cred := newCredential()
	ctx := context.Background()

	require.NoError(t, cred.AddECDSAProof(ctx, keys.ecPriv, issuer+"#key-1", "assertionMethod", keys.resolver))
	received := roundTrip(t, cred)

	ok, err := received.VerifyECDSA(ctx, keys.resolver)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, received.VerifyProof(ctx, keys.resolver))

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	fresh := newCredential()
	err = fresh.AddECDSAProof(ctx, hex.EncodeToString(crypto.FromECDSA(other)), issuer+"#key-1", "assertionMethod", keys.resolver)
	assert.Error(t, err)
}

func TestProofErrors(t *testing.T) {
	keys := newIssuer(t)
	ctx := context.Background()

	cred := newCredential()
	assert.ErrorIs(t, cred.VerifyMerkleKeyProof(keys.vkey), ErrNoProof)
	assert.ErrorIs(t, cred.VerifyProof(ctx, keys.resolver), ErrNoProof)

	assert.Error(t, cred.AddMerkleKeyProof(keys.signingKey(t, 0), "", "assertionMethod"))
	assert.Error(t, cred.AddMerkleKeyProof(keys.signingKey(t, 0), issuer+"#merkle-key", ""))

	require.NoError(t, cred.AddCustomProof(&dto.Proof{Type: "Unknown2099", VerificationMethod: issuer + "#key-1"}))
	assert.ErrorIs(t, cred.VerifyProof(ctx, keys.resolver), ErrUnsupportedProofType)

	cred["proof"] = "not an object"
	assert.ErrorIs(t, cred.VerifyProof(ctx, keys.resolver), ErrInvalidProof)

	cred["proof"] = []interface{}{}
	assert.ErrorIs(t, cred.VerifyProof(ctx, keys.resolver), ErrNoProof)

	cred["proof"] = map[string]interface{}{"type": merklekey.SignatureType}
	assert.ErrorIs(t, cred.VerifyMerkleKeyProof(keys.vkey), ErrInvalidProof)
}

func TestCanonicalizeJCSExcludesProof(t *testing.T) {
	a := JSONMap{"b": 1, "a": "x"}
	b := JSONMap{"a": "x", "b": 1, "proof": map[string]interface{}{"type": "T"}}

	ca, err := a.CanonicalizeJCS()
	require.NoError(t, err)
	cb, err := b.CanonicalizeJCS()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1}`, string(ca))
	assert.Equal(t, ca, cb)
}
