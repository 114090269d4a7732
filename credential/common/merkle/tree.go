package merkle

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTree is returned when a tree is requested over no leaves.
	ErrEmptyTree = errors.New("merkle: tree has no leaves")
	// ErrIndexOutOfRange is returned when a proof is requested for a missing leaf.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
	// ErrDuplicateLeaf is returned when a leaf's subtree repeats the subtree
	// to its left, so no proof for it passes Verify.
	ErrDuplicateLeaf = errors.New("merkle: leaf repeats its left sibling")
)

// Tree holds every level of a Merkle tree, leaf hashes first and the root last.
// A Tree is immutable and safe for concurrent use.
type Tree struct {
	digest Digest
	levels [][]Hash
}

// NewTree hashes the leaf values and builds the tree above them. Leaf values
// should be distinct: Proof fails with ErrDuplicateLeaf for a leaf whose
// path meets an identical left sibling.
func NewTree(d Digest, leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]Hash, len(leaves))
	for i, leaf := range leaves {
		level[i] = HashLeaf(d, leaf)
	}

	levels := [][]Hash{level}
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, HashNode(d, left, right))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{digest: d, levels: levels}, nil
}

// Root returns the root hash.
func (t *Tree) Root() Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Height returns the number of levels above the leaves.
func (t *Tree) Height() int {
	return len(t.levels) - 1
}

// Digest returns the hash function of the tree.
func (t *Tree) Digest() Digest {
	return t.digest
}

// Proof returns the inclusion proof for the leaf at index.
func (t *Tree) Proof(index int) (*Proof, error) {
	if index < 0 || index >= t.Len() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, t.Len())
	}

	nodes := make([]Node, 0, t.Height())
	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		if pos%2 == 0 {
			sibling := level[pos]
			if pos+1 < len(level) {
				sibling = level[pos+1]
			}
			nodes = append(nodes, Node{Direction: Right, Hash: sibling})
		} else {
			if level[pos-1].Equal(level[pos]) {
				return nil, fmt.Errorf("%w: index %d", ErrDuplicateLeaf, index)
			}
			nodes = append(nodes, Node{Direction: Left, Hash: level[pos-1]})
		}
		pos /= 2
	}

	return &Proof{Nodes: nodes}, nil
}

// Root builds the tree over leaves and returns its root.
func Root(d Digest, leaves [][]byte) (Hash, error) {
	t, err := NewTree(d, leaves)
	if err != nil {
		return nil, err
	}
	return t.Root(), nil
}

// Prove builds the tree over leaves and returns the proof for index.
func Prove(d Digest, leaves [][]byte, index int) (*Proof, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(leaves))
	}
	t, err := NewTree(d, leaves)
	if err != nil {
		return nil, err
	}
	return t.Proof(index)
}
