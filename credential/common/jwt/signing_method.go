package jwt

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
)

var ErrInvalidKeyType = errors.New("jwt: invalid key type")

// SigningMethodES256K implements ES256K signing
type SigningMethodES256K struct{}

// Alg returns the algorithm name
func (m *SigningMethodES256K) Alg() string {
	return "ES256K"
}

// Sign signs a string with a hex private key or an *ecdsa.PrivateKey.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	var privKey *ecdsa.PrivateKey
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		privKey = k
	case string:
		privKeyBytes, err := hex.DecodeString(strings.TrimPrefix(k, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		privKey, err = crypto.ToECDSA(privKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidKeyType, key)
	}

	hash := sha256.Sum256([]byte(signingString))
	sig, err := crypto.Sign(hash[:], privKey)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}

	return sig[:64], nil // R || S, recovery id dropped
}

// Verify verifies a signature against an *ecdsa.PublicKey.
func (m *SigningMethodES256K) Verify(signingString string, signature []byte, key interface{}) error {
	publicKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidKeyType, key)
	}

	if len(signature) != 64 {
		return fmt.Errorf("invalid signature length")
	}

	hash := sha256.Sum256([]byte(signingString))
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), hash[:], signature) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}

// SigningMethodMerkleKey signs with one leaf of a Merkle key collection.
// The JWS signature is the Merkle key signature string itself.
type SigningMethodMerkleKey struct {
	verifier *merklekey.Verifier
}

func (m *SigningMethodMerkleKey) Alg() string {
	return "MKS2021"
}

// Sign expects a *merklekey.SigningKey.
func (m *SigningMethodMerkleKey) Sign(signingString string, key interface{}) ([]byte, error) {
	signingKey, ok := key.(*merklekey.SigningKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidKeyType, key)
	}

	sig, err := merklekey.SignBytes([]byte(signingString), signingKey)
	if err != nil {
		return nil, err
	}
	return []byte(sig), nil
}

// Verify expects a *merklekey.VerificationKey.
func (m *SigningMethodMerkleKey) Verify(signingString string, signature []byte, key interface{}) error {
	vkey, ok := key.(*merklekey.VerificationKey)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidKeyType, key)
	}
	return m.verifier.VerifyBytes([]byte(signingString), string(signature), vkey)
}

var (
	// ES256K is the ES256K signing method instance
	ES256K = &SigningMethodES256K{}
	// MerkleKey is the Merkle key collection signing method instance
	MerkleKey = &SigningMethodMerkleKey{verifier: merklekey.NewVerifier()}
)

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})
	jwt.RegisterSigningMethod(MerkleKey.Alg(), func() jwt.SigningMethod {
		return MerkleKey
	})
}
