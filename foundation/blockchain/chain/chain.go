// Package chain implements the chain-state engine: the UTXO set, the
// fee-ordered mempool with replace-by-fee admission, block validation and
// append, the reward schedule, and difficulty retargeting (spec §3-§4.10).
//
// This is grounded on the teacher's foundation/blockchain/database and
// state packages: a single RWMutex-guarded struct exposing
// ApplyTransaction/ApplyMiningReward-shaped methods, generalized from an
// account/balance ledger to a UTXO ledger.
package chain

import (
	"sync"
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/mempool"
	"github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

// EventHandler receives notable chain events for logging/UI, mirroring the
// teacher's foundation/events registry callback signature.
type EventHandler func(format string, args ...any)

// Blockchain is the authoritative, replicated chain state: blocks, the
// UTXO set, the mempool, and the currently active target (spec §3). All
// mutation passes through a single RWMutex per §5's coarse-lock model.
type Blockchain struct {
	mu     sync.RWMutex
	params params.Params

	blocks []coin.Block
	utxos  *utxoSet
	pool   *mempool.Pool
	target hash.Hash256

	evHandler EventHandler
}

// New constructs an empty chain with no genesis block, ready for either
// mining height 0 locally or bootstrap sync from a peer.
func New(p params.Params, evHandler EventHandler) *Blockchain {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}
	return &Blockchain{
		params:    p,
		utxos:     newUTXOSet(),
		pool:      mempool.New(),
		target:    hash.FromBig(p.MinTargetValue()),
		evHandler: evHandler,
	}
}

// Height returns the number of blocks currently committed. An empty chain
// has height 0; the first mined block is at index (height) 0 per spec §3
// ("height = index"), so Height doubles as "next height to mine".
func (bc *Blockchain) Height() uint64 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return uint64(len(bc.blocks))
}

// Target returns the currently active proof-of-work target.
func (bc *Blockchain) Target() hash.Hash256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.target
}

// Params returns the chain's consensus parameters.
func (bc *Blockchain) Params() params.Params {
	return bc.params
}

// Tip returns the header of the most recently appended block and whether
// the chain is non-empty.
func (bc *Blockchain) Tip() (coin.BlockHeader, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.blocks) == 0 {
		return coin.BlockHeader{}, false
	}
	return bc.blocks[len(bc.blocks)-1].Header, true
}

// Block returns the block at height i, if present.
func (bc *Blockchain) Block(i uint64) (coin.Block, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if i >= uint64(len(bc.blocks)) {
		return coin.Block{}, false
	}
	return bc.blocks[i], true
}

// Blocks returns a copy of every committed block, used by bootstrap sync
// and snapshotting.
func (bc *Blockchain) Blocks() []coin.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	out := make([]coin.Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// UTXOsFor returns every entry (output, marked) owned by pk (spec §4.12
// FetchUTXOs).
func (bc *Blockchain) UTXOsFor(pk signature.PublicKey) []UTXOView {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var out []UTXOView
	for h, e := range bc.utxos.all() {
		if e.Output.Owner.Equal(pk) {
			out = append(out, UTXOView{Hash: h, Output: e.Output, Marked: e.Marked})
		}
	}
	return out
}

// UTXOView is a read-only projection of one UTXO entry, returned to callers
// outside the package (e.g. the node's FetchUTXOs handler).
type UTXOView struct {
	Hash   hash.Hash256
	Output coin.TransactionOutput
	Marked bool
}

// MempoolLen returns the number of mempool entries.
func (bc *Blockchain) MempoolLen() int {
	return bc.pool.Len()
}

// now is a seam so tests can control time deterministically; production
// code always calls time.Now().
var now = time.Now

// SetNowForTest overrides the chain package's time source for the duration
// of a test and returns a function that restores it.
func SetNowForTest(fn func() time.Time) (restore func()) {
	prev := now
	now = fn
	return func() { now = prev }
}

// SetTargetForTest overrides the chain's active target, for tests that
// need headroom below MinTarget to exercise retarget clamping.
func (bc *Blockchain) SetTargetForTest(t hash.Hash256) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.target = t
}
