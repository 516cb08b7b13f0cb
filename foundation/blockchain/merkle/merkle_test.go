package merkle_test

import (
	"testing"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/merkle"
)

type leaf string

func (l leaf) Hash() (hash.Hash256, error) {
	return hash.Of(string(l))
}

func Test_EmptyRootIsZero(t *testing.T) {
	root, err := merkle.Root[leaf](nil)
	if err != nil {
		t.Fatalf("root: %s", err)
	}
	if !root.IsZero() {
		t.Fatalf("expected empty input to produce the zero hash")
	}
}

func Test_SingleLeafEqualsItsHash(t *testing.T) {
	l := leaf("only-one")
	want, err := l.Hash()
	if err != nil {
		t.Fatalf("hashing leaf: %s", err)
	}

	got, err := merkle.Root([]leaf{l})
	if err != nil {
		t.Fatalf("root: %s", err)
	}

	if !got.Equal(want) {
		t.Fatalf("expected single-leaf root to equal the leaf's own hash")
	}
}

func Test_OddLengthDuplicatesLast(t *testing.T) {
	three := []leaf{"a", "b", "c"}
	four := []leaf{"a", "b", "c", "c"}

	rootThree, err := merkle.Root(three)
	if err != nil {
		t.Fatalf("root: %s", err)
	}
	rootFour, err := merkle.Root(four)
	if err != nil {
		t.Fatalf("root: %s", err)
	}

	if !rootThree.Equal(rootFour) {
		t.Fatalf("expected an odd-length layer to duplicate its last element")
	}
}

func Test_OrderSensitive(t *testing.T) {
	forward := []leaf{"a", "b", "c", "d"}
	backward := []leaf{"d", "c", "b", "a"}

	r1, err := merkle.Root(forward)
	if err != nil {
		t.Fatalf("root: %s", err)
	}
	r2, err := merkle.Root(backward)
	if err != nil {
		t.Fatalf("root: %s", err)
	}

	if r1.Equal(r2) {
		t.Fatalf("expected transaction order to affect the merkle root")
	}
}
