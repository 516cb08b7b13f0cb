package chain

import (
	"fmt"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// RebuildFromBlocks reconstructs utxos and target by replaying blocks in
// order (spec §4.8): each non-coinbase input removes the referenced UTXO,
// every output of every transaction is inserted, and the target is
// recomputed by replaying the retarget formula at each boundary. The
// receiver must be freshly constructed (empty blocks/utxos/target at
// params.MinTargetValue) before calling this.
func (bc *Blockchain) RebuildFromBlocks(blocks []coin.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.blocks = nil
	bc.utxos = newUTXOSet()

	for height, blk := range blocks {
		for _, tx := range blk.Transactions {
			for _, in := range tx.Inputs {
				bc.utxos.remove(in.PrevOutputHash)
			}
			for _, out := range tx.Outputs {
				h, err := out.Hash()
				if err != nil {
					return chainerr.Wrap(chainerr.Serialization, fmt.Errorf("rebuilding utxos at height %d: %w", height, err))
				}
				bc.utxos.insert(h, out)
			}
		}

		bc.blocks = append(bc.blocks, blk)

		newHeight := uint64(height + 1)
		if bc.params.IsRetargetHeight(newHeight) {
			bc.retarget(newHeight)
		}
	}

	return nil
}
