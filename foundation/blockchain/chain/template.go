package chain

import (
	"github.com/google/uuid"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/merkle"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// BuildTemplate assembles a candidate block paying pk, per spec §4.9: the
// highest-fee prefix of the mempool up to BlockTransactionCap-1 entries,
// preceded by a coinbase whose value covers the base reward plus their
// combined fees.
func (bc *Blockchain) BuildTemplate(pk signature.PublicKey) (coin.Block, error) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	height := uint64(len(bc.blocks))

	maxNonCoinbase := bc.params.BlockTransactionCap - 1
	if maxNonCoinbase < 0 {
		maxNonCoinbase = 0
	}
	selected := bc.pool.TopN(maxNonCoinbase)

	var fees uint64
	txs := make([]coin.Transaction, 0, len(selected)+1)
	for _, e := range selected {
		fees += e.Fee
	}

	coinbase := coin.Transaction{
		Outputs: []coin.TransactionOutput{
			{
				Value:    bc.params.BaseReward(height) + fees,
				UniqueID: uuid.New(),
				Owner:    pk,
			},
		},
	}
	txs = append(txs, coinbase)
	for _, e := range selected {
		txs = append(txs, e.Tx)
	}

	root, err := merkle.Root(txs)
	if err != nil {
		return coin.Block{}, chainerr.Wrap(chainerr.InvalidMerkleRoot, err)
	}

	var prevHash hash.Hash256
	if len(bc.blocks) > 0 {
		prevHash, err = bc.blocks[len(bc.blocks)-1].Header.Hash()
		if err != nil {
			return coin.Block{}, chainerr.Wrap(chainerr.Serialization, err)
		}
	}

	return coin.Block{
		Header: coin.BlockHeader{
			Timestamp:     now(),
			Nonce:         0,
			PrevBlockHash: prevHash,
			MerkleRoot:    root,
			Target:        bc.target,
		},
		Transactions: txs,
	}, nil
}

// ValidateTemplate reports whether an in-progress template is still
// buildable on the current chain state, per spec §4.10: its prev hash
// matches the tip, its target matches the active target, and every
// non-coinbase transaction's inputs still resolve in utxos.
func (bc *Blockchain) ValidateTemplate(blk coin.Block) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	var tipHash hash.Hash256
	if len(bc.blocks) > 0 {
		h, err := bc.blocks[len(bc.blocks)-1].Header.Hash()
		if err != nil {
			return false
		}
		tipHash = h
	}

	if !blk.Header.PrevBlockHash.Equal(tipHash) {
		return false
	}
	if !blk.Header.Target.Equal(bc.target) {
		return false
	}

	for i, tx := range blk.Transactions {
		if i == 0 {
			continue
		}
		for _, in := range tx.Inputs {
			if !bc.utxos.has(in.PrevOutputHash) {
				return false
			}
		}
	}

	return true
}
