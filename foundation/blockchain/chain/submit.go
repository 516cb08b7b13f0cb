package chain

import (
	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/mempool"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// SubmitTransaction validates and admits tx to the mempool per spec §4.4,
// including replace-by-fee conflict resolution. It returns the admitted
// transaction's hash on success.
func (bc *Blockchain) SubmitTransaction(tx coin.Transaction) (hash.Hash256, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	fee, err := coin.ValidateStandalone(tx, bc.utxos)
	if err != nil {
		return hash.Hash256{}, err
	}

	txHash, err := tx.Hash()
	if err != nil {
		return hash.Hash256{}, chainerr.Wrap(chainerr.Serialization, err)
	}

	prevHashes := make([]hash.Hash256, len(tx.Inputs))
	for i, in := range tx.Inputs {
		prevHashes[i] = in.PrevOutputHash
	}

	// Separate conflicting inputs (already marked, implying a resident
	// mempool entry consumes them) from unmarked ones, per §4.4 step 2.
	var markedInputs []hash.Hash256
	for _, h := range prevHashes {
		if bc.utxos.isMarked(h) {
			markedInputs = append(markedInputs, h)
		}
	}

	var evicted []mempool.Entry
	if len(markedInputs) > 0 {
		conflicts := bc.pool.ConflictsWith(markedInputs)
		for _, c := range conflicts {
			if fee <= c.Fee {
				return hash.Hash256{}, chainerr.New(chainerr.FeeNotHigherThanReplacement,
					"new fee %d does not exceed conflicting entry's fee %d", fee, c.Fee)
			}
		}
		evicted = conflicts
	}

	// Evict conflicts, unmarking only inputs not also consumed by tx
	// itself, then unmark whatever else those evicted entries held that no
	// other survivor still needs.
	if len(evicted) > 0 {
		evictedHashes := make([]hash.Hash256, len(evicted))
		for i, e := range evicted {
			evictedHashes[i] = e.Hash
		}
		bc.pool.Remove(evictedHashes...)

		newInputs := make(map[hash.Hash256]struct{}, len(prevHashes))
		for _, h := range prevHashes {
			newInputs[h] = struct{}{}
		}

		for _, e := range evicted {
			for _, in := range e.Tx.Inputs {
				if _, reused := newInputs[in.PrevOutputHash]; reused {
					continue
				}
				if !bc.pool.Consumes(in.PrevOutputHash, hash.Hash256{}) {
					bc.utxos.setMarked(in.PrevOutputHash, false)
				}
			}
		}
	}

	bc.pool.Add(mempool.Entry{
		Tx:            tx,
		Hash:          txHash,
		Fee:           fee,
		AdmissionTime: now(),
	})
	for _, h := range prevHashes {
		bc.utxos.setMarked(h, true)
	}

	bc.evHandler("mempool: admitted %s (fee=%d)", txHash, fee)

	return txHash, nil
}
