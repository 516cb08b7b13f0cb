package coin

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/merkle"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// BlockHeader carries everything that contributes to a block's proof of
// work and identity. The block's identity is the hash of the header alone
// (spec §3): transactions are committed to only via MerkleRoot.
type BlockHeader struct {
	_             struct{} `cbor:",toarray"`
	Timestamp     time.Time
	Nonce         uint64
	PrevBlockHash hash.Hash256
	MerkleRoot    hash.Hash256
	Target        hash.Hash256
}

// Hash returns the header's content hash, i.e. the block's identity.
func (h BlockHeader) Hash() (hash.Hash256, error) {
	data, err := h.MarshalCBOR()
	if err != nil {
		return hash.Hash256{}, fmt.Errorf("coin: hashing header: %w", err)
	}
	return hash.OfBytes(data), nil
}

// MatchesTarget reports whether the header's hash satisfies its own
// recorded Target (spec §4.5 step 3, first half).
func (h BlockHeader) MatchesTarget() (bool, error) {
	id, err := h.Hash()
	if err != nil {
		return false, err
	}
	return id.MatchesTarget(h.Target), nil
}

// MarshalCBOR encodes the header using canonical, deterministic encoding.
func (h BlockHeader) MarshalCBOR() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	type wire BlockHeader
	return mode.Marshal(wire(h))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (h *BlockHeader) UnmarshalCBOR(data []byte) error {
	type wire BlockHeader
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = BlockHeader(w)
	return nil
}

// Block is a header plus its ordered transaction list. Transaction order
// is consensus-relevant: it determines the merkle root and the coinbase's
// required position (spec §3).
type Block struct {
	_            struct{} `cbor:",toarray"`
	Header       BlockHeader
	Transactions []Transaction
}

// Hash returns the block's identity, which is its header's hash.
func (b Block) Hash() (hash.Hash256, error) {
	return b.Header.Hash()
}

// Coinbase returns the block's coinbase transaction, which by structural
// validation is always Transactions[0].
func (b Block) Coinbase() (Transaction, bool) {
	if len(b.Transactions) == 0 {
		return Transaction{}, false
	}
	return b.Transactions[0], true
}

// ValidateStructure checks the shape requirements of spec §4.5 that do not
// need UTXO state: a non-empty transaction list, exactly one coinbase and
// it must be first, a correctly recomputed merkle root, and (if prev is
// non-nil) header linkage and monotonic timestamp. It does not check
// proof-of-work, per-transaction validity against the UTXO set, or the
// coinbase reward sum — those require chain state and live in the chain
// package.
func (b Block) ValidateStructure(prev *BlockHeader) error {
	if len(b.Transactions) == 0 {
		return chainerr.New(chainerr.BadCoinbase, "block has no transactions")
	}

	coinbaseCount := 0
	for i, tx := range b.Transactions {
		if tx.IsCoinbase() {
			coinbaseCount++
			if i != 0 {
				return chainerr.New(chainerr.BadCoinbase, "coinbase transaction is not first")
			}
		}
	}
	if coinbaseCount != 1 {
		return chainerr.New(chainerr.BadCoinbase, "block has %d coinbase transactions, want exactly 1", coinbaseCount)
	}

	root, err := merkle.Root(b.Transactions)
	if err != nil {
		return chainerr.Wrap(chainerr.InvalidMerkleRoot, err)
	}
	if !root.Equal(b.Header.MerkleRoot) {
		return chainerr.New(chainerr.InvalidMerkleRoot, "recomputed merkle root does not match header")
	}

	if prev == nil {
		return nil
	}

	prevHash, err := prev.Hash()
	if err != nil {
		return err
	}
	if !b.Header.PrevBlockHash.Equal(prevHash) {
		return chainerr.New(chainerr.InvalidPrevHash, "prev_block_hash does not match the current tip")
	}
	if b.Header.Timestamp.Before(prev.Timestamp) {
		return chainerr.New(chainerr.NonMonotonicTimestamp, "block timestamp precedes its parent")
	}

	return nil
}
