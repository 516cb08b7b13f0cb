// Package mempool holds validated-but-unconfirmed transactions, kept
// sorted so the highest-fee entry is always first (spec §3, §4.4).
//
// This keeps the teacher's RWMutex-guarded map + explicit resort-on-change
// shape (foundation/blockchain/mempool/mempool.go), but the teacher selects
// transactions for a miner by per-account nonce ordering — nonsensical for
// a UTXO chain with no accounts — so selection here is fee-descending with
// admission-time as the tiebreak (oldest first), matching §4.4 exactly.
package mempool

import (
	"sort"
	"sync"
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
)

// Entry is one mempool-resident transaction.
type Entry struct {
	_             struct{} `cbor:",toarray"`
	Tx            coin.Transaction
	Hash          hash.Hash256
	Fee           uint64
	AdmissionTime time.Time
}

// Pool is the thread-safe, fee-sorted mempool. The chain package is
// responsible for holding the chain-wide write lock around admission and
// eviction so UTXO marking stays consistent with pool membership (I3/I4);
// Pool itself only guards its own slice/index.
type Pool struct {
	mu      sync.RWMutex
	entries []Entry
	byHash  map[hash.Hash256]int // index into entries, kept valid only within a locked section
}

// New constructs an empty mempool.
func New() *Pool {
	return &Pool{
		byHash: make(map[hash.Hash256]int),
	}
}

// Add inserts entry and re-sorts the pool so the highest-fee transaction is
// first, ties broken by older admission time (spec §4.4 step 3). Callers
// must have already performed standalone validation and RBF conflict
// resolution; Add does not re-validate.
func (p *Pool) Add(entry Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, entry)
	p.resort()
}

// Remove deletes every entry whose hash is in hashes.
func (p *Pool) Remove(hashes ...hash.Hash256) {
	if len(hashes) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	drop := make(map[hash.Hash256]struct{}, len(hashes))
	for _, h := range hashes {
		drop[h] = struct{}{}
	}

	kept := p.entries[:0:0]
	for _, e := range p.entries {
		if _, ok := drop[e.Hash]; !ok {
			kept = append(kept, e)
		}
	}
	p.entries = kept
	p.reindex()
}

// ConflictsWith returns every entry that consumes at least one of the given
// previous-output hashes, used to discover RBF conflicts (§4.4 step 2).
func (p *Pool) ConflictsWith(prevOutputHashes []hash.Hash256) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	want := make(map[hash.Hash256]struct{}, len(prevOutputHashes))
	for _, h := range prevOutputHashes {
		want[h] = struct{}{}
	}

	var conflicts []Entry
	for _, e := range p.entries {
		for _, in := range e.Tx.Inputs {
			if _, ok := want[in.PrevOutputHash]; ok {
				conflicts = append(conflicts, e)
				break
			}
		}
	}
	return conflicts
}

// Consumes reports whether any surviving entry other than excluding still
// spends prevOutputHash, used by eviction/cleanup to decide whether a UTXO
// may be safely unmarked (§4.4, §4.7).
func (p *Pool) Consumes(prevOutputHash hash.Hash256, excluding hash.Hash256) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.entries {
		if e.Hash.Equal(excluding) {
			continue
		}
		for _, in := range e.Tx.Inputs {
			if in.PrevOutputHash.Equal(prevOutputHash) {
				return true
			}
		}
	}
	return false
}

// Get returns the entry for hash h and whether it was found.
func (p *Pool) Get(h hash.Hash256) (Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	idx, ok := p.byHash[h]
	if !ok {
		return Entry{}, false
	}
	return p.entries[idx], true
}

// Len returns the number of entries currently in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Snapshot returns a copy of every entry in fee-descending, then
// admission-ascending order.
func (p *Pool) Snapshot() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Expired returns every entry older than maxAge as of now, for mempool
// cleanup (§4.7).
func (p *Pool) Expired(now time.Time, maxAge time.Duration) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var expired []Entry
	for _, e := range p.entries {
		if now.Sub(e.AdmissionTime) > maxAge {
			expired = append(expired, e)
		}
	}
	return expired
}

// TopN returns up to n entries in fee-descending order, for template
// assembly (§4.9).
func (p *Pool) TopN(n int) []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if n > len(p.entries) {
		n = len(p.entries)
	}
	out := make([]Entry, n)
	copy(out, p.entries[:n])
	return out
}

// resort re-sorts entries by fee descending, admission time ascending, and
// rebuilds the hash index. Callers must hold the write lock.
func (p *Pool) resort() {
	sort.SliceStable(p.entries, func(i, j int) bool {
		if p.entries[i].Fee != p.entries[j].Fee {
			return p.entries[i].Fee > p.entries[j].Fee
		}
		return p.entries[i].AdmissionTime.Before(p.entries[j].AdmissionTime)
	})
	p.reindex()
}

// reindex rebuilds byHash from the current entries slice. Callers must
// hold the write lock.
func (p *Pool) reindex() {
	p.byHash = make(map[hash.Hash256]int, len(p.entries))
	for i, e := range p.entries {
		p.byHash[e.Hash] = i
	}
}
