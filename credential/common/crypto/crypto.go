// Package crypto holds the single-key signature suites: secp256k1 ECDSA for
// controller keys and JcsEd25519Signature2020.
package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
)

var ErrInvalidKey = errors.New("crypto: invalid key")

// KeyToBytes converts a hex string with prefix 0x to a byte array.
func KeyToBytes(key string) ([]byte, error) {
	if !strings.HasPrefix(key, "0x") {
		return nil, fmt.Errorf("%w: key is not in 0x hex format", ErrInvalidKey)
	}

	return hex.DecodeString(key[2:])
}

// SignMessage signs sha256(message) with a 32-byte secp256k1 private key and
// returns the 65-byte recoverable signature as hex.
func SignMessage(privateKey, message []byte) (string, error) {
	hash := sha256.Sum256(message)

	privKey, err := ParsePrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(hash[:], privKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	return hex.EncodeToString(signature), nil
}

// SignJSON canonicalizes a JSON message with JCS and signs it like
// SignMessage.
func SignJSON(privateKey, message []byte) (string, error) {
	canonical, err := jsoncanonicalizer.Transform(message)
	if err != nil {
		return "", err
	}
	return SignMessage(privateKey, canonical)
}

// ParsePrivateKey parses a 32-byte secp256k1 private key.
func ParsePrivateKey(privateKeyBytes []byte) (*ecdsa.PrivateKey, error) {
	if len(privateKeyBytes) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes", ErrInvalidKey)
	}

	privKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return privKey, nil
}

// VerifyJSONSignature canonicalizes a JSON message and verifies a secp256k1
// signature over it.
func VerifyJSONSignature(publicKey, message, signature []byte) bool {
	message, err := jsoncanonicalizer.Transform(message)
	if err != nil {
		return false
	}

	return VerifySignature(publicKey, message, signature)
}

func verifySignatureWithoutV(publicKey, message, signature []byte) bool {
	if len(signature) != 64 || len(publicKey) != 33 || len(message) == 0 {
		return false
	}

	hash := sha256.Sum256(message)

	return crypto.VerifySignature(publicKey, hash[:], signature)
}

// VerifySignature verifies a secp256k1 signature over sha256(message) against
// a 33-byte compressed public key. The signature is 65 bytes with a recovery
// byte, or 64 bytes without.
func VerifySignature(publicKey, message, signature []byte) bool {
	if len(signature) != 65 || len(publicKey) != 33 || len(message) == 0 {
		return verifySignatureWithoutV(publicKey, message, signature)
	}

	hash := sha256.Sum256(message)

	recoveredPubKey, err := crypto.Ecrecover(hash[:], signature)
	if err != nil {
		return false
	}

	recoveredPubKeyObj, err := crypto.UnmarshalPubkey(recoveredPubKey)
	if err != nil {
		return false
	}

	return bytes.Equal(crypto.CompressPubkey(recoveredPubKeyObj), publicKey)
}
