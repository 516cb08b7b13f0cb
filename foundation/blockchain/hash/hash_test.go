package hash_test

import (
	"math/big"
	"testing"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
)

func Test_MatchesTarget(t *testing.T) {
	small := hash.FromUint64(5)
	big1 := hash.FromUint64(10)

	if !small.MatchesTarget(big1) {
		t.Fatalf("expected 5 <= 10 to match target")
	}
	if big1.MatchesTarget(small) {
		t.Fatalf("expected 10 <= 5 to not match target")
	}
	if !small.MatchesTarget(small) {
		t.Fatalf("expected equal values to match target (inclusive)")
	}
}

func Test_RoundTripCBOR(t *testing.T) {
	orig, err := hash.Of(struct{ X string }{X: "hello"})
	if err != nil {
		t.Fatalf("hashing value: %s", err)
	}

	data, err := orig.MarshalCBOR()
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}

	var got hash.Hash256
	if err := got.UnmarshalCBOR(data); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}

	if !got.Equal(orig) {
		t.Fatalf("round trip mismatch: got %s, want %s", got, orig)
	}
}

func Test_ZeroIsZero(t *testing.T) {
	if !hash.Zero().IsZero() {
		t.Fatalf("expected Zero() to report IsZero")
	}
	if hash.FromUint64(1).IsZero() {
		t.Fatalf("expected non-zero value to not report IsZero")
	}
}

func Test_DeterministicHashing(t *testing.T) {
	type value struct {
		A int
		B string
	}

	v := value{A: 1, B: "x"}

	h1, err := hash.Of(v)
	if err != nil {
		t.Fatalf("hashing value: %s", err)
	}
	h2, err := hash.Of(v)
	if err != nil {
		t.Fatalf("hashing value: %s", err)
	}

	if !h1.Equal(h2) {
		t.Fatalf("expected deterministic hash, got %s and %s", h1, h2)
	}
}

func Test_FromBigCopies(t *testing.T) {
	b := big.NewInt(42)
	h := hash.FromBig(b)
	b.SetInt64(0)

	if h.Big().Int64() != 42 {
		t.Fatalf("expected FromBig to copy the value, got %s", h.Big())
	}
}
