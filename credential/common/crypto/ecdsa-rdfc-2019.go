package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSASign signs a 32-byte digest with secp256k1, producing a 65-byte
// [r, s, v] signature.
func ECDSASign(msg []byte, hexPrivateKey string) ([]byte, error) {
	privKey, err := crypto.HexToECDSA(hexPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: invalid private key: %w", err)
	}

	signature, err := crypto.Sign(msg, privKey)
	if err != nil {
		return nil, fmt.Errorf("ecdsa: sign error: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("ecdsa: invalid signature length, expected 65 bytes")
	}

	return signature, nil
}

// ECDSAVerifySignature verifies a hex [r, s] or [r, s, v] signature over a
// digest against a hex public key, compressed or not.
func ECDSAVerifySignature(publicKey, signature string, msg []byte) (bool, error) {
	pubKeyBytes, err := hex.DecodeString(publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(pubKeyBytes) == 0 {
		return false, fmt.Errorf("failed to decode public key: %w", ErrInvalidKey)
	}

	if pubKeyBytes[0] == 0x02 || pubKeyBytes[0] == 0x03 {
		pubKeyParsed, err := btcec.ParsePubKey(pubKeyBytes)
		if err != nil {
			return false, fmt.Errorf("failed to parse compressed public key: %w", err)
		}
		pubKeyBytes = pubKeyParsed.SerializeUncompressed()
	}

	pubKey, err := crypto.UnmarshalPubkey(pubKeyBytes)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}

	var rsBytes []byte
	switch len(sigBytes) {
	case 65:
		rsBytes = sigBytes[:64]
	case 64:
		rsBytes = sigBytes
	default:
		return false, fmt.Errorf("invalid signature length: got %d, want 64 or 65 bytes", len(sigBytes))
	}

	r := new(big.Int).SetBytes(rsBytes[:32])
	s := new(big.Int).SetBytes(rsBytes[32:])

	return ecdsa.Verify(pubKey, msg, r, s), nil
}

// VerifyKeyPair reports whether publicKey belongs to privateKey.
func VerifyKeyPair(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) bool {
	derived := &privateKey.PublicKey
	return derived.X.Cmp(publicKey.X) == 0 && derived.Y.Cmp(publicKey.Y) == 0
}

// VerifyKeyPairFromHex reports whether a hex private key and a hex public key
// (33-byte compressed or 65-byte uncompressed) match.
func VerifyKeyPairFromHex(privateKeyHex, publicKeyHex string) (bool, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return false, fmt.Errorf("failed to convert private key hex: %w", err)
	}

	publicKeyBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("failed to decode public key hex: %w", err)
	}

	parsed, err := secp256k1.ParsePubKey(publicKeyBytes)
	if err != nil {
		return false, fmt.Errorf("failed to parse public key: %w", err)
	}

	publicKey, err := crypto.UnmarshalPubkey(parsed.SerializeUncompressed())
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal public key: %w", err)
	}

	return VerifyKeyPair(privateKey, publicKey), nil
}
