// Package merkle computes the root commitment over an ordered sequence of
// transactions, per spec §4.1.
//
// This keeps the teacher's generic Hashable[T] constraint
// (foundation/blockchain/merkle) but replaces the node/leaf binary-tree
// structure with the spec's flat pairwise reduction, since the only
// consensus-relevant output is the root hash itself, not a navigable tree.
package merkle

import "github.com/coreledger/coreledger/foundation/blockchain/hash"

// Hashable represents the behavior concrete data must exhibit to be used in
// a merkle computation.
type Hashable interface {
	Hash() (hash.Hash256, error)
}

// Root computes the merkle root over values in order:
//
//  1. Let L = [hash(v) for v in values].
//  2. While len(L) > 1: pair adjacent entries and replace each pair (a, b)
//     with hash(concat(a, b)); an unpaired final entry is paired with itself.
//  3. Return L[0]. For an empty input, return the zero hash.
func Root[T Hashable](values []T) (hash.Hash256, error) {
	if len(values) == 0 {
		return hash.Zero(), nil
	}

	layer := make([]hash.Hash256, len(values))
	for i, v := range values {
		h, err := v.Hash()
		if err != nil {
			return hash.Hash256{}, err
		}
		layer[i] = h
	}

	for len(layer) > 1 {
		next := make([]hash.Hash256, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			a := layer[i]
			b := a
			if i+1 < len(layer) {
				b = layer[i+1]
			}
			next = append(next, pairHash(a, b))
		}
		layer = next
	}

	return layer[0], nil
}

// pairHash hashes the concatenation of two child hashes' canonical byte
// encodings to produce their parent in the tree.
func pairHash(a, b hash.Hash256) hash.Hash256 {
	var buf [64]byte
	a.Big().FillBytes(buf[:32])
	b.Big().FillBytes(buf[32:])
	return hash.OfBytes(buf[:])
}
