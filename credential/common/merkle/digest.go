// Package merkle builds binary hash trees over ordered leaf values and produces
// inclusion proofs that can be checked against the tree root alone.
//
// Hashing is domain separated: leaves are hashed as D(0x00 || value) and
// interior nodes as D(0x01 || left || right). A level with an odd node count
// pairs its last node with itself, the copy sitting on the right.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// Hash is the output of a Digest.
type Hash []byte

// Equal reports whether h and o hold the same bytes.
func (h Hash) Equal(o Hash) bool {
	return bytes.Equal(h, o)
}

// String returns the hex form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// Digest is a fixed-width cryptographic hash function used for tree nodes.
type Digest interface {
	// Name returns the name of the hash function.
	Name() string
	// Size returns the size of the digest output in bytes.
	Size() int
	// Sum hashes the concatenation of all parts. Parts are not mutated.
	Sum(parts ...[]byte) Hash
}

type stdDigest struct {
	name string
	size int
	new  func() hash.Hash
}

func (d *stdDigest) Name() string { return d.name }

func (d *stdDigest) Size() int { return d.size }

func (d *stdDigest) Sum(parts ...[]byte) Hash {
	h := d.new()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

type keccakDigest struct{}

func (keccakDigest) Name() string { return "keccak-256" }

func (keccakDigest) Size() int { return 32 }

func (keccakDigest) Sum(parts ...[]byte) Hash {
	return crypto.Keccak256(parts...)
}

var (
	// SHA256 is SHA-256.
	SHA256 Digest = &stdDigest{name: "sha256", size: sha256.Size, new: sha256.New}
	// Blake2b256 is BLAKE2b with a 256-bit output.
	Blake2b256 Digest = &stdDigest{name: "blake2b-256", size: blake2b.Size256, new: newBlake2b256}
	// Keccak256 is the legacy Keccak-256 used by Ethereum.
	Keccak256 Digest = keccakDigest{}
)

func newBlake2b256() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

// HashLeaf hashes a raw leaf value.
func HashLeaf(d Digest, value []byte) Hash {
	return d.Sum([]byte{leafPrefix}, value)
}

// HashNode hashes two child hashes into their parent.
func HashNode(d Digest, left, right Hash) Hash {
	return d.Sum([]byte{nodePrefix}, left, right)
}
