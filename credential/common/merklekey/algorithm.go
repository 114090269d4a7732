package merklekey

import (
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Algorithm is a signature scheme usable for the leaves of a collection.
type Algorithm interface {
	Tag() SignatureTag
	Name() string
	Sign(message, private []byte) ([]byte, error)
	// Verify reports whether signature is valid. It never panics on
	// malformed input.
	Verify(message, signature, public []byte) bool
}

// Ed25519 signs with a 32-byte seed or a 64-byte private key.
var Ed25519 Algorithm = ed25519Algorithm{}

type ed25519Algorithm struct{}

func (ed25519Algorithm) Tag() SignatureTag { return SignatureTagEd25519 }

func (ed25519Algorithm) Name() string { return "ed25519" }

func (ed25519Algorithm) Sign(message, private []byte) ([]byte, error) {
	var key ed25519.PrivateKey
	switch len(private) {
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(private)
	case ed25519.PrivateKeySize:
		key = ed25519.PrivateKey(private)
	default:
		return nil, fmt.Errorf("ed25519: private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(private))
	}
	return ed25519.Sign(key, message), nil
}

func (ed25519Algorithm) Verify(message, signature, public []byte) bool {
	if len(public) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(public), message, signature)
}

// AlgorithmFor returns the algorithm registered for tag.
func AlgorithmFor(tag SignatureTag) (Algorithm, error) {
	switch tag {
	case SignatureTagEd25519:
		return Ed25519, nil
	default:
		return nil, fmt.Errorf("%w: signature tag %d", ErrUnsupportedAlgorithm, byte(tag))
	}
}
