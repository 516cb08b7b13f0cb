package chain

import (
	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// AppendBlock validates blk against the current chain state and, on
// success, commits it: consumed outputs are removed, new outputs
// inserted, confirmed transactions are dropped from the mempool, and the
// chain retargets if the new height is a retarget boundary (spec §4.5,
// §4.6).
func (bc *Blockchain) AppendBlock(blk coin.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	var prevHeader *coin.BlockHeader
	if len(bc.blocks) > 0 {
		h := bc.blocks[len(bc.blocks)-1].Header
		prevHeader = &h
	}

	if err := blk.ValidateStructure(prevHeader); err != nil {
		return err
	}

	ok, err := blk.Header.MatchesTarget()
	if err != nil {
		return chainerr.Wrap(chainerr.Serialization, err)
	}
	if !ok {
		return chainerr.New(chainerr.InsufficientProofOfWork, "header hash exceeds its target")
	}
	if !blk.Header.Target.Equal(bc.target) {
		return chainerr.New(chainerr.TargetMismatch, "block target does not match the engine's active target")
	}

	height := uint64(len(bc.blocks))

	// Shadow UTXO view: a copy-on-write overlay so later transactions in
	// the block can spend earlier ones' outputs, and so a failure partway
	// through leaves bc.utxos untouched (spec §4.5 step 5).
	shadow := newShadowView(bc.utxos)

	var fees uint64
	for i, tx := range blk.Transactions {
		if i == 0 {
			continue // coinbase handled after the loop
		}

		fee, err := coin.ValidateStandalone(tx, shadow)
		if err != nil {
			return err
		}

		for _, in := range tx.Inputs {
			if !shadow.spend(in.PrevOutputHash) {
				return chainerr.New(chainerr.DuplicateInput, "input %s consumed twice within the block", in.PrevOutputHash)
			}
		}
		for _, out := range tx.Outputs {
			outHash, err := out.Hash()
			if err != nil {
				return chainerr.Wrap(chainerr.Serialization, err)
			}
			shadow.insert(outHash, out)
		}

		next := fees + fee
		if next < fees {
			return chainerr.New(chainerr.InvalidTransaction, "accumulated fees overflow u64")
		}
		fees = next
	}

	coinbase := blk.Transactions[0]
	coinbaseSum, err := coinbase.OutputSum()
	if err != nil {
		return err
	}
	wantReward := bc.params.BaseReward(height) + fees
	if coinbaseSum != wantReward {
		return chainerr.New(chainerr.BadCoinbase, "coinbase pays %d, want base_reward(%d)+fees=%d", coinbaseSum, height, wantReward)
	}

	// Commit: apply the shadow view's spends/inserts to the real set,
	// insert coinbase outputs, and clear mempool entries now confirmed.
	var confirmedHashes []hash.Hash256
	for _, h := range shadow.spent {
		bc.utxos.remove(h)
	}
	for h, out := range shadow.inserted {
		bc.utxos.insert(h, out)
	}
	for _, out := range coinbase.Outputs {
		outHash, err := out.Hash()
		if err != nil {
			return chainerr.Wrap(chainerr.Serialization, err)
		}
		bc.utxos.insert(outHash, out)
	}

	for _, tx := range blk.Transactions {
		txHash, err := tx.Hash()
		if err != nil {
			return chainerr.Wrap(chainerr.Serialization, err)
		}
		confirmedHashes = append(confirmedHashes, txHash)
	}
	bc.pool.Remove(confirmedHashes...)

	// Re-establish marking consistency: a UTXO stays marked only if some
	// surviving mempool entry still references it (spec §4.5 commit step,
	// preserving I3).
	for h, e := range bc.utxos.all() {
		if e.Marked && !bc.pool.Consumes(h, hash.Hash256{}) {
			bc.utxos.setMarked(h, false)
		}
	}

	bc.blocks = append(bc.blocks, blk)
	bc.evHandler("chain: appended block %d", height)

	newHeight := height + 1
	if bc.params.IsRetargetHeight(newHeight) {
		bc.retarget(newHeight)
	}

	return nil
}

// shadowView overlays tentative spends/inserts over a base utxoSet so a
// block's transactions can be validated in order without mutating
// confirmed state until the whole block succeeds.
type shadowView struct {
	base     *utxoSet
	spent    []hash.Hash256
	spentSet map[hash.Hash256]struct{}
	inserted map[hash.Hash256]coin.TransactionOutput
}

func newShadowView(base *utxoSet) *shadowView {
	return &shadowView{
		base:     base,
		spentSet: make(map[hash.Hash256]struct{}),
		inserted: make(map[hash.Hash256]coin.TransactionOutput),
	}
}

// Resolve implements coin.Resolver against the overlay, falling back to the
// base set for outputs not touched yet in this block.
func (v *shadowView) Resolve(h hash.Hash256) (coin.TransactionOutput, bool) {
	if _, spent := v.spentSet[h]; spent {
		return coin.TransactionOutput{}, false
	}
	if out, ok := v.inserted[h]; ok {
		return out, true
	}
	return v.base.Resolve(h)
}

// spend marks h as consumed in the overlay, returning false if it was
// already spent (a same-block double-spend, spec §4.5 step 5).
func (v *shadowView) spend(h hash.Hash256) bool {
	if _, already := v.spentSet[h]; already {
		return false
	}
	v.spentSet[h] = struct{}{}
	v.spent = append(v.spent, h)
	return true
}

func (v *shadowView) insert(h hash.Hash256, out coin.TransactionOutput) {
	v.inserted[h] = out
}
