package coin

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// Transaction moves value from a set of previously unspent outputs to a new
// set of outputs. A transaction with no inputs is a coinbase.
type Transaction struct {
	_       struct{} `cbor:",toarray"`
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}

// IsCoinbase reports whether tx has no inputs, the sole marker of a
// coinbase transaction (spec §3).
func (tx Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// Hash returns the transaction's identity: the hash of its canonical CBOR
// encoding.
func (tx Transaction) Hash() (hash.Hash256, error) {
	data, err := tx.MarshalCBOR()
	if err != nil {
		return hash.Hash256{}, fmt.Errorf("coin: hashing transaction: %w", err)
	}
	return hash.OfBytes(data), nil
}

// OutputSum returns the sum of every output value, erroring on u64
// overflow (spec §4.3: "the total must not overflow u64").
func (tx Transaction) OutputSum() (uint64, error) {
	var sum uint64
	for _, out := range tx.Outputs {
		next := sum + out.Value
		if next < sum {
			return 0, chainerr.New(chainerr.InvalidTransaction, "output sum overflows u64")
		}
		sum = next
	}
	return sum, nil
}

// HasDuplicateInputs reports whether any two inputs of tx reference the same
// previous output hash (spec §4.3: intra-tx double-spend).
func (tx Transaction) HasDuplicateInputs() bool {
	seen := make(map[hash.Hash256]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, ok := seen[in.PrevOutputHash]; ok {
			return true
		}
		seen[in.PrevOutputHash] = struct{}{}
	}
	return false
}

// MarshalCBOR encodes the transaction using canonical, deterministic
// encoding.
func (tx Transaction) MarshalCBOR() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	type wire Transaction
	return mode.Marshal(wire(tx))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (tx *Transaction) UnmarshalCBOR(data []byte) error {
	type wire Transaction
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*tx = Transaction(w)
	return nil
}
