package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func TestJcsEd25519Vector(t *testing.T) {
	const (
		public = "8CpYU3CXo1NEXVi5ZJcGgfmYjMoQ4xpewofpcPnWS5kt"
		secret = "8gFfcuUTmX7P4DYfpEV7iVWzfSSV6QHQZFZamT6oNjVV"
		sig    = "4VjbV3672WRhKqUVn4Cdp6e7AaXYYv2f71dM8ZDHqWexfku4oLUeDVFuxGRXxpkVUwZ924zFHu527Z2ZNiPKZVeF"
	)
	// The vector signs the bytes of "hello" serialized as a JSON array.
	msg := []int{'h', 'e', 'l', 'l', 'o'}

	pub, err := base58.Decode(public)
	require.NoError(t, err)
	seed, err := base58.Decode(secret)
	require.NoError(t, err)
	require.Len(t, seed, ed25519.SeedSize)
	assert.Equal(t, pub, []byte(ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)))

	got, err := JcsEd25519Sign(msg, seed)
	require.NoError(t, err)
	assert.Equal(t, sig, got)
	assert.NoError(t, JcsEd25519Verify(msg, got, pub))
}

func TestJcsEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	doc := map[string]interface{}{"b": []interface{}{1, "x"}, "a": true}

	sig, err := JcsEd25519Sign(doc, priv)
	require.NoError(t, err)
	require.NoError(t, JcsEd25519Verify(doc, sig, pub))

	reordered := map[string]interface{}{"a": true, "b": []interface{}{1, "x"}}
	assert.NoError(t, JcsEd25519Verify(reordered, sig, pub))

	tests := []struct {
		name string
		data interface{}
		sig  string
		pub  []byte
	}{
		{name: "modified data", data: map[string]interface{}{"a": false}, sig: sig, pub: pub},
		{name: "short key", data: doc, sig: sig, pub: []byte("IOTA")},
		{name: "bad base58", data: doc, sig: "0OIl", pub: pub},
		{name: "short signature", data: doc, sig: base58.Encode([]byte("IOTA")), pub: pub},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, JcsEd25519Verify(tt.data, tt.sig, tt.pub), ErrInvalidJcsEd25519Signature)
		})
	}

	_, err = JcsEd25519Sign(doc, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignMessageVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	priv := crypto.FromECDSA(key)
	pub := crypto.CompressPubkey(&key.PublicKey)

	sigHex, err := SignMessage(priv, []byte("message"))
	require.NoError(t, err)
	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)

	assert.True(t, VerifySignature(pub, []byte("message"), sig))
	assert.True(t, VerifySignature(pub, []byte("message"), sig[:64]))
	assert.False(t, VerifySignature(pub, []byte("other"), sig))

	_, err = SignMessage([]byte{1, 2}, []byte("message"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSignJSONVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pub := crypto.CompressPubkey(&key.PublicKey)

	sigHex, err := SignJSON(crypto.FromECDSA(key), []byte(`{"b":1,"a":2}`))
	require.NoError(t, err)
	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)

	assert.True(t, VerifyJSONSignature(pub, []byte(`{"a":2, "b":1}`), sig))
	assert.False(t, VerifyJSONSignature(pub, []byte(`{"a":3,"b":1}`), sig))
	assert.False(t, VerifyJSONSignature(pub, []byte(`{`), sig))
}

func TestECDSASignVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	privHex := hex.EncodeToString(crypto.FromECDSA(key))
	digest := sha256.Sum256([]byte("document"))

	sig, err := ECDSASign(digest[:], privHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	for _, pub := range [][]byte{crypto.CompressPubkey(&key.PublicKey), crypto.FromECDSAPub(&key.PublicKey)} {
		ok, err := ECDSAVerifySignature(hex.EncodeToString(pub), hex.EncodeToString(sig), digest[:])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	other := sha256.Sum256([]byte("other"))
	ok, err := ECDSAVerifySignature(hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)), hex.EncodeToString(sig), other[:])
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ECDSAVerifySignature("", hex.EncodeToString(sig), digest[:])
	assert.Error(t, err)
	_, err = ECDSAVerifySignature(hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)), "abcd", digest[:])
	assert.Error(t, err)
}

func TestVerifyKeyPairFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	privHex := hex.EncodeToString(crypto.FromECDSA(key))

	ok, err := VerifyKeyPairFromHex(privHex, hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyKeyPairFromHex(privHex, hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyKeyPairFromHex(privHex, hex.EncodeToString(crypto.CompressPubkey(&other.PublicKey)))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyKeyPairFromHex(privHex, "02ff")
	assert.Error(t, err)
}

func TestKeyToBytes(t *testing.T) {
	b, err := KeyToBytes("0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	_, err = KeyToBytes("0102")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
