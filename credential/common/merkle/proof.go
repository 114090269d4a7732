package merkle

import (
	"errors"
	"fmt"
)

// MaxProofLength bounds the number of steps in a proof. It matches the
// height of a tree over 1<<32 leaves, so every recovered index fits a uint32.
const MaxProofLength = 32

// ErrInvalidProofEncoding is returned when proof bytes cannot be decoded.
var ErrInvalidProofEncoding = errors.New("merkle: invalid proof encoding")

// Direction tells on which side of the running hash a sibling sits.
type Direction byte

const (
	// Left means the sibling is the left child; the running hash is the right one.
	Left Direction = 0x00
	// Right means the sibling is the right child; the running hash is the left one.
	Right Direction = 0x01
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return fmt.Sprintf("Direction(%d)", byte(d))
	}
}

// Node is one step of an inclusion proof.
type Node struct {
	Direction Direction
	Hash      Hash
}

// Proof is the sibling path from a leaf up to the root.
type Proof struct {
	Nodes []Node
}

// Len returns the number of steps in the proof.
func (p *Proof) Len() int {
	return len(p.Nodes)
}

// Root recomputes the root reached from the leaf value along the proof path.
func (p *Proof) Root(d Digest, leaf []byte) Hash {
	h := HashLeaf(d, leaf)
	for _, n := range p.Nodes {
		if n.Direction == Left {
			h = HashNode(d, n.Hash, h)
		} else {
			h = HashNode(d, h, n.Hash)
		}
	}
	return h
}

// Verify reports whether the proof links leaf to root.
//
// A duplicated node is always its own right sibling, so over distinct leaf
// values a left sibling never equals the running hash. Such a path is
// rejected so that Index is unique for every leaf; Tree.Proof refuses to
// produce one.
func (p *Proof) Verify(d Digest, leaf []byte, root Hash) bool {
	if len(p.Nodes) > MaxProofLength {
		return false
	}
	h := HashLeaf(d, leaf)
	for _, n := range p.Nodes {
		if len(n.Hash) != d.Size() {
			return false
		}
		switch n.Direction {
		case Left:
			if n.Hash.Equal(h) {
				return false
			}
			h = HashNode(d, n.Hash, h)
		case Right:
			h = HashNode(d, h, n.Hash)
		default:
			return false
		}
	}
	return h.Equal(root)
}

// Index returns the position of the proven leaf, read from the directions:
// bit k is set when the sibling at step k is a left child.
func (p *Proof) Index() (uint32, error) {
	if len(p.Nodes) > MaxProofLength {
		return 0, fmt.Errorf("%w: %d steps exceed %d", ErrInvalidProofEncoding, len(p.Nodes), MaxProofLength)
	}
	var index uint64
	for k, n := range p.Nodes {
		if n.Direction == Left {
			index |= 1 << uint(k)
		}
	}
	return uint32(index), nil
}

// Encode serializes the proof as one direction byte followed by the sibling
// hash for every step.
func (p *Proof) Encode() []byte {
	if len(p.Nodes) == 0 {
		return []byte{}
	}
	out := make([]byte, 0, len(p.Nodes)*(1+len(p.Nodes[0].Hash)))
	for _, n := range p.Nodes {
		out = append(out, byte(n.Direction))
		out = append(out, n.Hash...)
	}
	return out
}

// DecodeProof parses bytes produced by Encode for digest d.
func DecodeProof(d Digest, data []byte) (*Proof, error) {
	step := 1 + d.Size()
	if len(data)%step != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrInvalidProofEncoding, len(data), step)
	}
	count := len(data) / step
	if count > MaxProofLength {
		return nil, fmt.Errorf("%w: %d steps exceed %d", ErrInvalidProofEncoding, count, MaxProofLength)
	}

	nodes := make([]Node, count)
	for i := 0; i < count; i++ {
		chunk := data[i*step : (i+1)*step]
		dir := Direction(chunk[0])
		if dir != Left && dir != Right {
			return nil, fmt.Errorf("%w: unknown direction byte %#x at step %d", ErrInvalidProofEncoding, chunk[0], i)
		}
		h := make(Hash, d.Size())
		copy(h, chunk[1:])
		nodes[i] = Node{Direction: dir, Hash: h}
	}

	return &Proof{Nodes: nodes}, nil
}
