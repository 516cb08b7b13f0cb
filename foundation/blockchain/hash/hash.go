// Package hash provides the 256-bit hash and target types used throughout
// the blockchain for proof-of-work and identity derivation.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Size is the number of bytes in a canonical Hash/Target encoding.
const Size = 32

// Hash256 is a 256-bit unsigned integer produced by hashing the canonical
// binary encoding of a value. It doubles as a Target (the upper bound a
// header hash must not exceed to satisfy proof-of-work).
type Hash256 struct {
	b [Size]byte // big-endian; a plain array so equal hashes are equal map keys
}

// Zero is the all-zero hash, used as the previous-block-hash of the genesis
// block and as the empty merkle root.
func Zero() Hash256 {
	return Hash256{}
}

// FromBig constructs a Hash256 from a big.Int. The value is copied.
func FromBig(v *big.Int) Hash256 {
	var h Hash256
	v.FillBytes(h.b[:])
	return h
}

// FromUint64 constructs a Hash256 from a small integer; handy for tests and
// for building targets from a leading-zero-bit count.
func FromUint64(v uint64) Hash256 {
	return FromBig(new(big.Int).SetUint64(v))
}

// Of hashes the canonical CBOR encoding of v with SHA-256 and returns the
// digest interpreted as a big-endian 256-bit unsigned integer.
func Of(v any) (Hash256, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return Hash256{}, fmt.Errorf("hash: building canonical encoder: %w", err)
	}

	data, err := mode.Marshal(v)
	if err != nil {
		return Hash256{}, fmt.Errorf("hash: encoding value: %w", err)
	}

	return OfBytes(data), nil
}

// OfBytes hashes raw bytes directly, for internal composition such as the
// merkle tree's pairwise concatenation step.
func OfBytes(data []byte) Hash256 {
	return Hash256{b: sha256.Sum256(data)}
}

// Big returns the value as a freshly allocated big.Int.
func (h Hash256) Big() *big.Int {
	return new(big.Int).SetBytes(h.b[:])
}

// IsZero reports whether this is the all-zero hash.
func (h Hash256) IsZero() bool {
	return h.b == [Size]byte{}
}

// Cmp compares h to other, following big.Int.Cmp semantics.
func (h Hash256) Cmp(other Hash256) int {
	return h.Big().Cmp(other.Big())
}

// MatchesTarget reports whether h satisfies proof-of-work against target,
// i.e. h <= target.
func (h Hash256) MatchesTarget(target Hash256) bool {
	return h.Cmp(target) <= 0
}

// Equal reports whether h and other encode the same value.
func (h Hash256) Equal(other Hash256) bool {
	return h.Cmp(other) == 0
}

// String renders the hash as lowercase hex, most-significant byte first,
// matching conventional block-explorer display.
func (h Hash256) String() string {
	return hex.EncodeToString(h.bytes())
}

func (h Hash256) bytes() []byte {
	b := make([]byte, Size)
	h.Big().FillBytes(b)
	return b
}

// words returns the value as four little-endian uint64 words, low word
// first, per the wire/persistence canonical encoding.
func (h Hash256) words() [4]uint64 {
	b := h.bytes() // big-endian, 32 bytes
	var w [4]uint64
	for i := 0; i < 4; i++ {
		// word i covers big-endian bytes [24-8i : 32-8i), i.e. word 0 is
		// the least-significant 8 bytes.
		start := Size - 8*(i+1)
		chunk := b[start : start+8]
		var word uint64
		for _, c := range chunk {
			word = word<<8 | uint64(c)
		}
		w[i] = word
	}
	return w
}

func fromWords(w [4]uint64) Hash256 {
	b := make([]byte, Size)
	for i := 0; i < 4; i++ {
		start := Size - 8*(i+1)
		word := w[i]
		for j := 7; j >= 0; j-- {
			b[start+j] = byte(word)
			word >>= 8
		}
	}
	var h Hash256
	copy(h.b[:], b)
	return h
}

// MarshalCBOR implements cbor.Marshaler, encoding the hash as a CBOR array
// of four little-endian uint64 words (low word first), per the spec's wire
// and persistence format.
func (h Hash256) MarshalCBOR() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	w := h.words()
	return mode.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (h *Hash256) UnmarshalCBOR(data []byte) error {
	var w [4]uint64
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = fromWords(w)
	return nil
}
