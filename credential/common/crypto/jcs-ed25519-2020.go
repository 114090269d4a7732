package crypto

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
)

// JcsEd25519SignatureType is the proof type of the JCS Ed25519 suite.
const JcsEd25519SignatureType = "JcsEd25519Signature2020"

var ErrInvalidJcsEd25519Signature = errors.New("crypto: invalid JcsEd25519Signature2020 signature")

// ed25519Key accepts a 32-byte seed or a 64-byte private key.
func ed25519Key(private []byte) (ed25519.PrivateKey, error) {
	switch len(private) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(private), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(private), nil
	default:
		return nil, fmt.Errorf("%w: ed25519 private key must be 32 or 64 bytes, got %d", ErrInvalidKey, len(private))
	}
}

// JcsEd25519Sign signs JCS(data) and returns the base58 signature.
func JcsEd25519Sign(data interface{}, private []byte) (string, error) {
	key, err := ed25519Key(private)
	if err != nil {
		return "", err
	}
	message, err := jsoncanonicalizer.Marshal(data)
	if err != nil {
		return "", err
	}
	return base58.Encode(ed25519.Sign(key, message)), nil
}

// JcsEd25519Verify checks a base58 signature over JCS(data).
func JcsEd25519Verify(data interface{}, signature string, public []byte) error {
	if len(public) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes", ErrInvalidJcsEd25519Signature, ed25519.PublicKeySize)
	}
	sig, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJcsEd25519Signature, err)
	}
	message, err := jsoncanonicalizer.Marshal(data)
	if err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(public), message, sig) {
		return ErrInvalidJcsEd25519Signature
	}
	return nil
}
