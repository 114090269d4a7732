package merklekey

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/keycollection"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
)

// SigningKey holds what one sign operation needs: the leaf keypair and its
// inclusion proof.
type SigningKey struct {
	Public    []byte
	Private   []byte
	Proof     *merkle.Proof
	Algorithm Algorithm
}

// NewSigningKey returns an Ed25519 signing key.
func NewSigningKey(public, private []byte, proof *merkle.Proof) *SigningKey {
	return &SigningKey{
		Public:    public,
		Private:   private,
		Proof:     proof,
		Algorithm: Ed25519,
	}
}

// SigningKeyFromCollection returns the signing key of the keypair at index,
// proven against the collection root under digest d.
func SigningKeyFromCollection(kc *keycollection.KeyCollection, d merkle.Digest, index int) (*SigningKey, error) {
	pair, err := kc.KeyPair(index)
	if err != nil {
		return nil, err
	}
	proof, err := kc.MerkleProof(d, index)
	if err != nil {
		return nil, err
	}
	return NewSigningKey(pair.Public, pair.Private, proof), nil
}

// Signature is a parsed signature value.
type Signature struct {
	Public    []byte
	Proof     []byte
	Signature []byte
}

// FormatSignature joins the base58 forms of the parts with ".".
func FormatSignature(public, proof, signature []byte) string {
	return base58.Encode(public) + "." + base58.Encode(proof) + "." + base58.Encode(signature)
}

// ParseSignature splits a signature value into its three decoded parts.
func ParseSignature(value string) (*Signature, error) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidProofValue, len(parts))
	}

	decoded := make([][]byte, 3)
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: segment %d is empty", ErrInvalidProofValue, i)
		}
		b, err := base58.Decode(part)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v", ErrInvalidProofValue, i, err)
		}
		decoded[i] = b
	}

	return &Signature{Public: decoded[0], Proof: decoded[1], Signature: decoded[2]}, nil
}

// Sign canonicalizes data with JCS and signs it with key.
func Sign(data interface{}, key *SigningKey) (string, error) {
	message, err := jsoncanonicalizer.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return SignBytes(message, key)
}

// SignJSON is Sign for an already encoded JSON document.
func SignJSON(document []byte, key *SigningKey) (string, error) {
	message, err := jsoncanonicalizer.Transform(document)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return SignBytes(message, key)
}

// SignBytes signs an already canonical message.
func SignBytes(message []byte, key *SigningKey) (string, error) {
	if key == nil || key.Proof == nil || len(key.Public) == 0 {
		return "", fmt.Errorf("%w: missing public key or proof", ErrSignature)
	}
	// An empty proof would leave the middle segment empty, which
	// ParseSignature rejects.
	if key.Proof.Len() == 0 {
		return "", fmt.Errorf("%w: a collection needs at least two keys to sign", ErrSignature)
	}
	alg := key.Algorithm
	if alg == nil {
		alg = Ed25519
	}

	sig, err := alg.Sign(message, key.Private)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignature, err)
	}

	return FormatSignature(key.Public, key.Proof.Encode(), sig), nil
}
