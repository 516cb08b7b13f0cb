package mempool_test

import (
	"testing"
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/mempool"
)

func entry(feeValue uint64, admitted time.Time, prevHashes ...hash.Hash256) mempool.Entry {
	var inputs []coin.TransactionInput
	for _, h := range prevHashes {
		inputs = append(inputs, coin.TransactionInput{PrevOutputHash: h})
	}
	tx := coin.Transaction{Inputs: inputs}
	h, err := hash.Of(admitted.String())
	if err != nil {
		panic(err)
	}
	return mempool.Entry{
		Tx:            tx,
		Hash:          h,
		Fee:           feeValue,
		AdmissionTime: admitted,
	}
}

func Test_SnapshotIsFeeDescendingThenOldestFirst(t *testing.T) {
	p := mempool.New()
	base := time.Now()

	p.Add(entry(100, base))
	p.Add(entry(300, base.Add(time.Second)))
	p.Add(entry(300, base.Add(-time.Second)))

	snap := p.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}
	if snap[0].Fee != 300 || !snap[0].AdmissionTime.Equal(base.Add(-time.Second)) {
		t.Fatalf("expected the older of the two 300-fee entries first")
	}
	if snap[2].Fee != 100 {
		t.Fatalf("expected the lowest-fee entry last")
	}
}

func Test_ConflictsWith(t *testing.T) {
	p := mempool.New()
	h1, err := hash.Of("utxo-1")
	if err != nil {
		t.Fatalf("hashing placeholder: %s", err)
	}
	h2, err := hash.Of("utxo-2")
	if err != nil {
		t.Fatalf("hashing placeholder: %s", err)
	}

	e := entry(50, time.Now(), h1)
	p.Add(e)

	conflicts := p.ConflictsWith([]hash.Hash256{h1})
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflicting entry, got %d", len(conflicts))
	}

	noConflicts := p.ConflictsWith([]hash.Hash256{h2})
	if len(noConflicts) != 0 {
		t.Fatalf("expected no conflicts for an unrelated hash")
	}
}

func Test_RemoveDropsEntries(t *testing.T) {
	p := mempool.New()
	e := entry(50, time.Now())
	p.Add(e)

	if p.Len() != 1 {
		t.Fatalf("expected 1 entry before removal")
	}
	p.Remove(e.Hash)
	if p.Len() != 0 {
		t.Fatalf("expected 0 entries after removal")
	}
}

func Test_Expired(t *testing.T) {
	p := mempool.New()
	now := time.Now()
	old := entry(10, now.Add(-time.Hour))
	fresh := entry(10, now)
	p.Add(old)
	p.Add(fresh)

	expired := p.Expired(now, 10*time.Minute)
	if len(expired) != 1 || !expired[0].Hash.Equal(old.Hash) {
		t.Fatalf("expected only the old entry to be expired")
	}
}

func Test_TopNCapsAtPoolSize(t *testing.T) {
	p := mempool.New()
	p.Add(entry(10, time.Now()))

	top := p.TopN(5)
	if len(top) != 1 {
		t.Fatalf("expected TopN to cap at the pool size, got %d", len(top))
	}
}
