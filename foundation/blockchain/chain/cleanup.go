package chain

import (
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
)

// CleanupMempool evicts every mempool entry older than
// MaxMempoolTransactionAge, unmarking each evicted entry's input UTXOs
// unless another surviving entry still consumes them (spec §4.7).
func (bc *Blockchain) CleanupMempool() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	maxAge := time.Duration(bc.params.MaxMempoolTransactionAge) * time.Second
	expired := bc.pool.Expired(now(), maxAge)
	if len(expired) == 0 {
		return 0
	}

	hashes := make([]hash.Hash256, len(expired))
	for i, e := range expired {
		hashes[i] = e.Hash
	}
	bc.pool.Remove(hashes...)

	for _, e := range expired {
		for _, in := range e.Tx.Inputs {
			if !bc.pool.Consumes(in.PrevOutputHash, hash.Hash256{}) {
				bc.utxos.setMarked(in.PrevOutputHash, false)
			}
		}
	}

	bc.evHandler("mempool: evicted %d expired entries", len(expired))
	return len(expired)
}
