// Package merklekey implements Merkle Key Collection signatures: any key of
// a collection signs on behalf of the whole collection by attaching its
// Merkle inclusion proof, and a verifier only needs the collection root.
package merklekey

import (
	"errors"
	"fmt"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
)

const (
	// MethodType is the verification method type carrying a Merkle key.
	MethodType = "MerkleKeyCollection2021"
	// SignatureType is the proof type of a Merkle key signature.
	SignatureType = "MerkleKeySignature2021"
)

var (
	ErrInvalidKeyFormat     = errors.New("merklekey: invalid key format")
	ErrInvalidProofValue    = errors.New("merklekey: invalid proof value")
	ErrInvalidSignature     = errors.New("merklekey: invalid signature")
	ErrSerialization        = errors.New("merklekey: serialization failed")
	ErrSignature            = errors.New("merklekey: signing failed")
	ErrUnsupportedAlgorithm = errors.New("merklekey: unsupported algorithm")

	// ErrInvalidProofEncoding is the merkle package error, re-exported so
	// callers of Verify can match it without importing merkle.
	ErrInvalidProofEncoding = merkle.ErrInvalidProofEncoding
)

// SignatureTag identifies the signature algorithm of a Merkle key.
type SignatureTag byte

const SignatureTagEd25519 SignatureTag = 0

func (t SignatureTag) String() string {
	if a, err := AlgorithmFor(t); err == nil {
		return a.Name()
	}
	return fmt.Sprintf("SignatureTag(%d)", byte(t))
}

// DigestTag identifies the digest algorithm of a Merkle key.
type DigestTag byte

const (
	DigestTagSHA256     DigestTag = 0
	DigestTagBlake2b256 DigestTag = 1
	DigestTagKeccak256  DigestTag = 2
)

var digests = map[DigestTag]merkle.Digest{
	DigestTagSHA256:     merkle.SHA256,
	DigestTagBlake2b256: merkle.Blake2b256,
	DigestTagKeccak256:  merkle.Keccak256,
}

func (t DigestTag) String() string {
	if d, ok := digests[t]; ok {
		return d.Name()
	}
	return fmt.Sprintf("DigestTag(%d)", byte(t))
}

// Digest returns the digest registered for tag.
func Digest(tag DigestTag) (merkle.Digest, error) {
	d, ok := digests[tag]
	if !ok {
		return nil, fmt.Errorf("%w: digest tag %d", ErrUnsupportedAlgorithm, byte(tag))
	}
	return d, nil
}

// DigestTagFor returns the tag of the digest named name, such as "sha256".
func DigestTagFor(name string) (DigestTag, error) {
	for tag, d := range digests {
		if d.Name() == name {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("%w: digest %q", ErrUnsupportedAlgorithm, name)
}

// Key is a decoded Merkle key.
type Key struct {
	SignatureTag SignatureTag
	DigestTag    DigestTag
	Root         merkle.Hash
}

// EncodeKey returns the Merkle key bytes [signature tag][digest tag][root].
func EncodeKey(sig SignatureTag, dig DigestTag, root merkle.Hash) []byte {
	out := make([]byte, 0, 2+len(root))
	out = append(out, byte(sig), byte(dig))
	return append(out, root...)
}

// ExtractTags reads and validates the two leading tag bytes of a Merkle key.
func ExtractTags(data []byte) (SignatureTag, DigestTag, error) {
	if len(data) < 2 {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrInvalidKeyFormat, len(data))
	}
	sig, dig := SignatureTag(data[0]), DigestTag(data[1])
	if _, err := AlgorithmFor(sig); err != nil {
		return 0, 0, fmt.Errorf("%w: unknown signature tag %d", ErrInvalidKeyFormat, data[0])
	}
	if _, ok := digests[dig]; !ok {
		return 0, 0, fmt.Errorf("%w: unknown digest tag %d", ErrInvalidKeyFormat, data[1])
	}
	return sig, dig, nil
}

// DecodeKey parses Merkle key bytes and checks the root width against the
// digest.
func DecodeKey(data []byte) (*Key, error) {
	sig, dig, err := ExtractTags(data)
	if err != nil {
		return nil, err
	}
	d := digests[dig]
	root := data[2:]
	if len(root) != d.Size() {
		return nil, fmt.Errorf("%w: root is %d bytes, %s needs %d", ErrInvalidKeyFormat, len(root), d.Name(), d.Size())
	}
	return &Key{
		SignatureTag: sig,
		DigestTag:    dig,
		Root:         append(merkle.Hash(nil), root...),
	}, nil
}

// Encode returns the key bytes.
func (k *Key) Encode() []byte {
	return EncodeKey(k.SignatureTag, k.DigestTag, k.Root)
}

// Digest returns the digest selected by the key.
func (k *Key) Digest() merkle.Digest {
	return digests[k.DigestTag]
}

// Algorithm returns the signature algorithm selected by the key.
func (k *Key) Algorithm() Algorithm {
	a, _ := AlgorithmFor(k.SignatureTag)
	return a
}
