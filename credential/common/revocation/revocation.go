// Package revocation holds the set of revoked leaf indices of a Merkle key
// collection.
package revocation

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/util"
)

// ErrInvalidEncoding is returned when an encoded set cannot be decoded.
var ErrInvalidEncoding = errors.New("revocation: invalid encoding")

// Set is a compact set of uint32 indices. The zero value and a nil *Set are
// both empty. A Set is not safe for concurrent mutation.
type Set struct {
	bits *bitset.BitSet
}

// NewSet returns a set holding the given indices.
func NewSet(indices ...uint32) *Set {
	s := &Set{bits: bitset.New(0)}
	for _, i := range indices {
		s.Insert(i)
	}
	return s
}

func (s *Set) lazy() *bitset.BitSet {
	if s.bits == nil {
		s.bits = bitset.New(0)
	}
	return s.bits
}

// Insert adds index to the set and reports whether it was absent.
func (s *Set) Insert(index uint32) bool {
	b := s.lazy()
	if b.Test(uint(index)) {
		return false
	}
	b.Set(uint(index))
	return true
}

// Remove deletes index from the set and reports whether it was present.
func (s *Set) Remove(index uint32) bool {
	if s == nil || s.bits == nil || !s.bits.Test(uint(index)) {
		return false
	}
	s.bits.Clear(uint(index))
	return true
}

// Contains reports whether index is in the set.
func (s *Set) Contains(index uint32) bool {
	if s == nil || s.bits == nil {
		return false
	}
	return s.bits.Test(uint(index))
}

// Len returns the number of indices in the set.
func (s *Set) Len() int {
	if s == nil || s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Indices returns the members in ascending order.
func (s *Set) Indices() []uint32 {
	if s == nil || s.bits == nil {
		return nil
	}
	out := make([]uint32, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, uint32(i))
	}
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	if s == nil || s.bits == nil {
		return NewSet()
	}
	return &Set{bits: s.bits.Clone()}
}

// Encode returns the gzip-compressed binary form of the set as base64url.
func (s *Set) Encode() (string, error) {
	raw, err := s.Clone().lazy().MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to marshal revocation set: %w", err)
	}
	return util.CompressToBase64URL(raw)
}

// Decode parses a set produced by Encode.
func Decode(encoded string) (*Set, error) {
	if encoded == "" {
		return NewSet(), nil
	}
	raw, err := util.DecompressFromBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	// The length header sizes the allocation in UnmarshalBinary, so it must
	// agree with the payload before the bitset sees it.
	if len(raw) < 8 {
		return nil, fmt.Errorf("%w: missing length header", ErrInvalidEncoding)
	}
	length := binary.BigEndian.Uint64(raw[:8])
	if length > 1<<32 || (length+63)/64 > uint64(len(raw)-8)/8 {
		return nil, fmt.Errorf("%w: length %d does not match payload", ErrInvalidEncoding, length)
	}
	b := &bitset.BitSet{}
	if err := b.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return &Set{bits: b}, nil
}

// FromBitstring reads a status-list bitstring, where bit i of byte i/8
// (least significant bit first) marks index 8*(i/8)+i%8.
func FromBitstring(data []byte) *Set {
	s := NewSet()
	for byteIndex, v := range data {
		for bit := 0; bit < 8; bit++ {
			if (v>>bit)&1 == 1 {
				s.Insert(uint32(byteIndex*8 + bit))
			}
		}
	}
	return s
}

// Bitstring returns the LSB-first bitstring form of the set, padded to at
// least minBytes.
func (s *Set) Bitstring(minBytes int) []byte {
	size := minBytes
	indices := s.Indices()
	if n := len(indices); n > 0 {
		if need := int(indices[n-1])/8 + 1; need > size {
			size = need
		}
	}
	out := make([]byte, size)
	for _, i := range indices {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// EncodeBitstring returns the gzip-compressed bitstring as base64url, the
// encodedList form of a status list credential.
func (s *Set) EncodeBitstring(minBytes int) (string, error) {
	return util.CompressToBase64URL(s.Bitstring(minBytes))
}

// DecodeBitstring parses an encodedList produced by EncodeBitstring.
func DecodeBitstring(encoded string) (*Set, error) {
	raw, err := util.DecompressFromBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return FromBitstring(raw), nil
}
