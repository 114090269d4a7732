// Package keycollection generates and holds collections of Ed25519 keypairs
// whose public keys are the leaves of a Merkle tree.
package keycollection

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/crypto/ed25519"
	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/merkle"
)

// DefaultMaxSize is the largest collection New builds unless WithMaxSize
// says otherwise.
const DefaultMaxSize uint64 = 1 << 32

var (
	ErrInvalidKeyCollectionSize = errors.New("keycollection: invalid key collection size")
	ErrIndexOutOfBounds         = errors.New("keycollection: index out of bounds")
	// ErrDuplicateKey is returned when two keypairs share a public key. A
	// repeated leaf cannot be proven against the collection root.
	ErrDuplicateKey = errors.New("keycollection: duplicate public key")
)

// KeyPair is one Ed25519 keypair of a collection.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// KeyCollection is an immutable, ordered set of keypairs. It is safe for
// concurrent use.
type KeyCollection struct {
	pairs []KeyPair

	mu    sync.Mutex
	trees map[string]*merkle.Tree
}

type options struct {
	maxSize     uint64
	concurrency int
	random      io.Reader
}

// Option configures New.
type Option func(*options)

// WithMaxSize overrides DefaultMaxSize.
func WithMaxSize(max uint64) Option {
	return func(o *options) {
		o.maxSize = max
	}
}

// WithConcurrency sets how many goroutines derive keys. Values below one
// are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRandom sets the entropy source for key seeds. It is read from a single
// goroutine, so a deterministic reader yields a deterministic collection.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// New generates a collection of size keypairs.
func New(size int, opts ...Option) (*KeyCollection, error) {
	o := &options{
		maxSize:     DefaultMaxSize,
		concurrency: runtime.GOMAXPROCS(0),
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(o)
	}

	if size <= 0 || uint64(size) > o.maxSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidKeyCollectionSize, size, o.maxSize)
	}

	seeds := make([]byte, size*ed25519.SeedSize)
	if _, err := io.ReadFull(o.random, seeds); err != nil {
		return nil, fmt.Errorf("failed to read key seeds: %w", err)
	}

	pairs := make([]KeyPair, size)
	chunk := (size + o.concurrency - 1) / o.concurrency

	var g errgroup.Group
	for start := 0; start < size; start += chunk {
		start, end := start, min(start+chunk, size)
		g.Go(func() error {
			for i := start; i < end; i++ {
				priv := ed25519.NewKeyFromSeed(seeds[i*ed25519.SeedSize : (i+1)*ed25519.SeedSize])
				pairs[i] = KeyPair{
					Public:  priv.Public().(ed25519.PublicKey),
					Private: priv,
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate key collection: %w", err)
	}
	if err := checkDistinct(pairs); err != nil {
		return nil, fmt.Errorf("failed to generate key collection: %w", err)
	}

	return &KeyCollection{pairs: pairs}, nil
}

func checkDistinct(pairs []KeyPair) error {
	seen := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if j, ok := seen[string(p.Public)]; ok {
			return fmt.Errorf("%w: indices %d and %d", ErrDuplicateKey, j, i)
		}
		seen[string(p.Public)] = i
	}
	return nil
}

// FromKeyPairs restores a collection from existing keypairs. Every pair must
// hold a 32-byte public key and the matching 64-byte private key, and no
// public key may repeat.
func FromKeyPairs(pairs []KeyPair) (*KeyCollection, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: 0", ErrInvalidKeyCollectionSize)
	}
	out := make([]KeyPair, len(pairs))
	for i, p := range pairs {
		if len(p.Public) != ed25519.PublicKeySize || len(p.Private) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("failed to restore key collection: malformed keypair at index %d", i)
		}
		derived := p.Private.Public().(ed25519.PublicKey)
		if !derived.Equal(p.Public) {
			return nil, fmt.Errorf("failed to restore key collection: keypair at index %d does not match", i)
		}
		out[i] = KeyPair{
			Public:  append(ed25519.PublicKey(nil), p.Public...),
			Private: append(ed25519.PrivateKey(nil), p.Private...),
		}
	}
	if err := checkDistinct(out); err != nil {
		return nil, fmt.Errorf("failed to restore key collection: %w", err)
	}
	return &KeyCollection{pairs: out}, nil
}

// Len returns the number of keypairs.
func (kc *KeyCollection) Len() int {
	return len(kc.pairs)
}

func (kc *KeyCollection) check(index int) error {
	if index < 0 || index >= len(kc.pairs) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfBounds, index, len(kc.pairs))
	}
	return nil
}

// Public returns the public key at index.
func (kc *KeyCollection) Public(index int) (ed25519.PublicKey, error) {
	if err := kc.check(index); err != nil {
		return nil, err
	}
	return kc.pairs[index].Public, nil
}

// Private returns the private key at index.
func (kc *KeyCollection) Private(index int) (ed25519.PrivateKey, error) {
	if err := kc.check(index); err != nil {
		return nil, err
	}
	return kc.pairs[index].Private, nil
}

// KeyPair returns the keypair at index.
func (kc *KeyCollection) KeyPair(index int) (KeyPair, error) {
	if err := kc.check(index); err != nil {
		return KeyPair{}, err
	}
	return kc.pairs[index], nil
}

// PublicKeys returns the public keys in collection order. The keys are the
// Merkle tree leaves.
func (kc *KeyCollection) PublicKeys() [][]byte {
	out := make([][]byte, len(kc.pairs))
	for i, p := range kc.pairs {
		out[i] = p.Public
	}
	return out
}

// MerkleTree returns the tree over the public keys with digest d. The tree
// is built once per digest and shared by later calls.
func (kc *KeyCollection) MerkleTree(d merkle.Digest) (*merkle.Tree, error) {
	kc.mu.Lock()
	defer kc.mu.Unlock()

	if t, ok := kc.trees[d.Name()]; ok {
		return t, nil
	}
	t, err := merkle.NewTree(d, kc.PublicKeys())
	if err != nil {
		return nil, err
	}
	if kc.trees == nil {
		kc.trees = make(map[string]*merkle.Tree)
	}
	kc.trees[d.Name()] = t
	return t, nil
}

// MerkleRoot returns the root over the public keys.
func (kc *KeyCollection) MerkleRoot(d merkle.Digest) (merkle.Hash, error) {
	t, err := kc.MerkleTree(d)
	if err != nil {
		return nil, err
	}
	return t.Root(), nil
}

// MerkleProof returns the inclusion proof of the public key at index.
func (kc *KeyCollection) MerkleProof(d merkle.Digest, index int) (*merkle.Proof, error) {
	if err := kc.check(index); err != nil {
		return nil, err
	}
	t, err := kc.MerkleTree(d)
	if err != nil {
		return nil, err
	}
	return t.Proof(index)
}
