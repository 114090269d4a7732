package merklekey

import (
	"fmt"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/logger"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/revocation"
)

// VerificationKey holds what one verify operation needs: the Merkle key
// bytes and the optional set of revoked leaf indices.
type VerificationKey struct {
	Data       []byte
	Revocation *revocation.Set
}

// NewVerificationKey returns a key without revocations.
func NewVerificationKey(data []byte) *VerificationKey {
	return &VerificationKey{Data: data}
}

// WithRevocation returns a copy of k that rejects the leaves in set.
func (k *VerificationKey) WithRevocation(set *revocation.Set) *VerificationKey {
	return &VerificationKey{Data: k.Data, Revocation: set}
}

// Failure reasons reported in logs. Callers only see ErrInvalidSignature.
const (
	reasonRootMismatch = "root_mismatch"
	reasonRevoked      = "revoked"
	reasonBadSignature = "bad_signature"
)

// Verifier checks Merkle key signatures.
type Verifier struct {
	logger *logger.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithLogger sets the logger that receives failure reasons.
func WithLogger(l *logger.Logger) VerifierOption {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier returns a verifier. Without WithLogger nothing is logged.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{logger: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultVerifier = NewVerifier()

// Verify checks signature over JCS(data) with the default verifier.
func Verify(data interface{}, signature string, key *VerificationKey) error {
	return defaultVerifier.Verify(data, signature, key)
}

// Verify checks signature over JCS(data).
func (v *Verifier) Verify(data interface{}, signature string, key *VerificationKey) error {
	return v.verify(signature, key, func() ([]byte, error) {
		return jsoncanonicalizer.Marshal(data)
	})
}

// VerifyJSON checks signature over the canonical form of an encoded JSON
// document.
func (v *Verifier) VerifyJSON(document []byte, signature string, key *VerificationKey) error {
	return v.verify(signature, key, func() ([]byte, error) {
		return jsoncanonicalizer.Transform(document)
	})
}

// VerifyBytes checks signature over an already canonical message.
func (v *Verifier) VerifyBytes(message []byte, signature string, key *VerificationKey) error {
	return v.verify(signature, key, func() ([]byte, error) {
		return message, nil
	})
}

// verify runs every structural check before any hashing or signature work.
// The message is canonicalized only once the leaf is known to be in the tree
// and not revoked.
func (v *Verifier) verify(signature string, key *VerificationKey, message func() ([]byte, error)) error {
	if key == nil {
		return fmt.Errorf("%w: missing verification key", ErrInvalidKeyFormat)
	}
	mk, err := DecodeKey(key.Data)
	if err != nil {
		return err
	}
	digest := mk.Digest()

	parsed, err := ParseSignature(signature)
	if err != nil {
		return err
	}
	proof, err := merkle.DecodeProof(digest, parsed.Proof)
	if err != nil {
		return fmt.Errorf("failed to decode merkle proof: %w", err)
	}
	index, err := proof.Index()
	if err != nil {
		return fmt.Errorf("failed to read leaf index: %w", err)
	}
	log := v.logger.With("leaf_index", index, "digest", digest.Name())

	if !proof.Verify(digest, parsed.Public, mk.Root) {
		log.Debug("merkle key signature rejected", "reason", reasonRootMismatch)
		return ErrInvalidSignature
	}
	if key.Revocation.Contains(index) {
		log.Debug("merkle key signature rejected", "reason", reasonRevoked)
		return ErrInvalidSignature
	}

	msg, err := message()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if !mk.Algorithm().Verify(msg, parsed.Signature, parsed.Public) {
		log.Debug("merkle key signature rejected", "reason", reasonBadSignature)
		return ErrInvalidSignature
	}

	return nil
}
