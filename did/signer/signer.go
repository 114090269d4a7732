// Package signer signs 32-byte hashes with a secp256k1 controller key,
// either in process or through a remote signing service.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("signer: invalid signature")

type Signer interface {
	Sign(ctx context.Context, hash []byte) ([]byte, error)
}

type DefaultSigner struct {
	priv *ecdsa.PrivateKey
}

func NewDefaultSigner(privHex string) (Signer, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privHex, "0x"))
	if err != nil {
		return nil, err
	}
	return &DefaultSigner{priv: priv}, nil
}

// Sign returns the 65-byte [R || S || V] signature of hash.
func (s *DefaultSigner) Sign(_ context.Context, hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}

	signature, err := crypto.Sign(hash, s.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}

	return signature, nil
}

// Recover returns the address whose key produced signature over hash.
func Recover(hash, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}
	pub, err := crypto.SigToPub(hash, signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
