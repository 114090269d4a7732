package jwt

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/keycollection"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/provider"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/revocation"
	verificationmethod "github.com/pilacorp/go-merklekey-sdk/credential/common/verification-method"
)

const issuerDID = "did:example:issuer"

type fixture struct {
	verifier   *JWTVerifier
	kc         *keycollection.KeyCollection
	privateHex string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ecKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	kc, err := keycollection.New(4)
	require.NoError(t, err)
	root, err := kc.MerkleRoot(merkle.SHA256)
	require.NoError(t, err)

	merkleVM := model.VerificationMethodEntry{
		ID:              issuerDID + "#merkle-key",
		Type:            model.MerkleKeyCollection2021,
		Controller:      issuerDID,
		PublicKeyBase58: base58.Encode(merklekey.EncodeKey(merklekey.SignatureTagEd25519, merklekey.DigestTagSHA256, root)),
	}
	require.NoError(t, merkleVM.SetRevocationSet(revocation.NewSet(3)))

	doc := &model.DIDDocument{
		ID: issuerDID,
		VerificationMethod: []model.VerificationMethodEntry{
			{
				ID:           issuerDID + "#key-1",
				Type:         model.EcdsaSecp256k1VerificationKey2019,
				Controller:   issuerDID,
				PublicKeyHex: hex.EncodeToString(crypto.CompressPubkey(&ecKey.PublicKey)),
			},
			merkleVM,
		},
	}

	return &fixture{
		verifier:   NewJWTVerifier("", verificationmethod.WithProvider(provider.NewStaticProvider(doc))),
		kc:         kc,
		privateHex: hex.EncodeToString(crypto.FromECDSA(ecKey)),
	}
}

func (f *fixture) merkleSigner(t *testing.T, index int) *JWTSigner {
	t.Helper()
	key, err := merklekey.SigningKeyFromCollection(f.kc, merkle.SHA256, index)
	require.NoError(t, err)
	return NewMerkleKeyJWTSigner(key, issuerDID+"#merkle-key")
}

func testCredential() jsonmap.JSONMap {
	return jsonmap.JSONMap{
		"@context":     []string{"https://www.w3.org/2018/credentials/v1"},
		"id":           "urn:uuid:self-issued-credential-12345678",
		"type":         []string{"VerifiableCredential", "SelfIssuedCredential"},
		"issuer":       issuerDID,
		"issuanceDate": "2024-01-18T08:13:09Z",
		"credentialSubject": map[string]interface{}{
			"id":   issuerDID,
			"name": "Example Issuer",
		},
	}
}

func TestJWTSelfIssued(t *testing.T) {
	f := newFixture(t)
	signer := NewJWTSigner(f.privateHex, issuerDID)
	assert.Equal(t, issuerDID+"#key-1", signer.GetKeyID())

	signedJWT, err := signer.SignDocument(testCredential(), "vc", nil)
	require.NoError(t, err)
	assert.Len(t, strings.Split(signedJWT, "."), 3)

	doc, err := f.verifier.VerifyDocument(context.Background(), signedJWT, "vc")
	require.NoError(t, err)
	assert.Equal(t, issuerDID, doc["issuer"])
}

func TestJWTMerkleKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signedJWT, err := f.merkleSigner(t, 1).SignDocument(testCredential(), "vc", map[string]interface{}{
		"aud": "did:example:verifier",
	})
	require.NoError(t, err)

	token, _, err := jwt.NewParser().ParseUnverified(signedJWT, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "MKS2021", token.Header["alg"])
	assert.Equal(t, issuerDID+"#merkle-key", token.Header["kid"])

	doc, err := f.verifier.VerifyDocument(ctx, signedJWT, "vc")
	require.NoError(t, err)
	assert.Equal(t, "urn:uuid:self-issued-credential-12345678", doc["id"])

	_, err = f.verifier.VerifyDocument(ctx, signedJWT, "vp")
	assert.Error(t, err)
}

func TestJWTMerkleKeyRevokedLeaf(t *testing.T) {
	f := newFixture(t)

	signedJWT, err := f.merkleSigner(t, 3).SignDocument(testCredential(), "vc")
	require.NoError(t, err)

	err = f.verifier.VerifyJWT(context.Background(), signedJWT)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestJWTTampered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signers := map[string]*JWTSigner{
		"es256k": NewJWTSigner(f.privateHex, issuerDID),
		"merkle": f.merkleSigner(t, 0),
	}

	for name, signer := range signers {
		t.Run(name, func(t *testing.T) {
			signedJWT, err := signer.SignDocument(testCredential(), "vc")
			require.NoError(t, err)

			other := testCredential()
			other["issuer"] = "did:example:mallory"
			forged, err := signer.SigningInput(other, "vc")
			require.NoError(t, err)

			parts := strings.Split(signedJWT, ".")
			tampered := string(forged) + "." + parts[2]
			assert.Error(t, f.verifier.VerifyJWT(ctx, tampered))
		})
	}
}

func TestJWTUnknownKey(t *testing.T) {
	f := newFixture(t)

	key, err := merklekey.SigningKeyFromCollection(f.kc, merkle.SHA256, 0)
	require.NoError(t, err)
	signedJWT, err := NewMerkleKeyJWTSigner(key, issuerDID+"#missing").SignDocument(testCredential(), "vc")
	require.NoError(t, err)

	err = f.verifier.VerifyJWT(context.Background(), signedJWT)
	assert.ErrorIs(t, err, jwt.ErrTokenUnverifiable)
}

func TestSigningMethodKeyTypes(t *testing.T) {
	_, err := ES256K.Sign("a.b", 42)
	assert.ErrorIs(t, err, ErrInvalidKeyType)
	assert.ErrorIs(t, ES256K.Verify("a.b", make([]byte, 64), "key"), ErrInvalidKeyType)

	_, err = MerkleKey.Sign("a.b", "key")
	assert.ErrorIs(t, err, ErrInvalidKeyType)
	assert.ErrorIs(t, MerkleKey.Verify("a.b", nil, "key"), ErrInvalidKeyType)
}

func TestGetDocumentFromJWT(t *testing.T) {
	f := newFixture(t)

	signedJWT, err := f.merkleSigner(t, 2).SignDocument(testCredential(), "vc")
	require.NoError(t, err)

	doc, err := GetDocumentFromJWT(signedJWT, "vc")
	require.NoError(t, err)
	assert.Equal(t, issuerDID, doc["issuer"])

	_, err = GetDocumentFromJWT(signedJWT, "vp")
	assert.Error(t, err)

	_, err = GetDocumentFromJWT("not-a-jwt", "vc")
	assert.Error(t, err)
}
