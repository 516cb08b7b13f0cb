package chain

import (
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
)

// utxoEntry pairs a confirmed output with whether a mempool transaction
// currently marks it as tentatively reserved (spec §3).
type utxoEntry struct {
	_      struct{} `cbor:",toarray"`
	Marked bool
	Output coin.TransactionOutput
}

// utxoSet is the confirmed, spendable output set, keyed by output hash.
// It is not itself concurrency-safe; callers hold Blockchain.mu.
type utxoSet struct {
	entries map[hash.Hash256]utxoEntry
}

func newUTXOSet() *utxoSet {
	return &utxoSet{entries: make(map[hash.Hash256]utxoEntry)}
}

// Resolve implements coin.Resolver.
func (s *utxoSet) Resolve(h hash.Hash256) (coin.TransactionOutput, bool) {
	e, ok := s.entries[h]
	if !ok {
		return coin.TransactionOutput{}, false
	}
	return e.Output, true
}

// insert adds a newly confirmed output, unmarked.
func (s *utxoSet) insert(h hash.Hash256, out coin.TransactionOutput) {
	s.entries[h] = utxoEntry{Output: out}
}

// remove deletes a spent output.
func (s *utxoSet) remove(h hash.Hash256) {
	delete(s.entries, h)
}

// has reports whether h is currently unspent.
func (s *utxoSet) has(h hash.Hash256) bool {
	_, ok := s.entries[h]
	return ok
}

// setMarked updates the marked flag for an existing entry. It is a no-op if
// h is not present (the entry may already have been spent by a block).
func (s *utxoSet) setMarked(h hash.Hash256, marked bool) {
	e, ok := s.entries[h]
	if !ok {
		return
	}
	e.Marked = marked
	s.entries[h] = e
}

// isMarked reports whether h is currently marked; false if h is unknown.
func (s *utxoSet) isMarked(h hash.Hash256) bool {
	e, ok := s.entries[h]
	return ok && e.Marked
}

// all returns every (hash, entry) pair; used for FetchUTXOs and snapshotting.
func (s *utxoSet) all() map[hash.Hash256]utxoEntry {
	return s.entries
}

// MarshalCBOR encodes the set as an array of (hash, marked, output) triples
// for deterministic, order-stable persistence: Go map iteration order is
// randomized, so the entries are sorted by hash before encoding.
func (s *utxoSet) MarshalCBOR() ([]byte, error) {
	type record struct {
		_      struct{} `cbor:",toarray"`
		Hash   hash.Hash256
		Marked bool
		Output coin.TransactionOutput
	}

	records := make([]record, 0, len(s.entries))
	for h, e := range s.entries {
		records = append(records, record{Hash: h, Marked: e.Marked, Output: e.Output})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Hash.Cmp(records[j].Hash) < 0
	})

	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(records)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (s *utxoSet) UnmarshalCBOR(data []byte) error {
	type record struct {
		_      struct{} `cbor:",toarray"`
		Hash   hash.Hash256
		Marked bool
		Output coin.TransactionOutput
	}

	var records []record
	if err := cbor.Unmarshal(data, &records); err != nil {
		return err
	}

	s.entries = make(map[hash.Hash256]utxoEntry, len(records))
	for _, r := range records {
		s.entries[r.Hash] = utxoEntry{Marked: r.Marked, Output: r.Output}
	}
	return nil
}
