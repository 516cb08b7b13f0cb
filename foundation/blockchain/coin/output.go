// Package coin defines the UTXO data model: outputs, inputs, transactions,
// and blocks, along with their hash identities and structural validation.
//
// This replaces the teacher's account/balance model (foundation/blockchain
// no longer tracks a map of address -> balance) with Bitcoin-style unspent
// outputs, each independently spendable and owned by a single public key.
package coin

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

// TransactionOutput is a single unit of spendable value, owned by whoever
// holds the private key matching Owner. UniqueID exists purely to make two
// outputs with identical value and owner hash differently (spec §4.2),
// since nothing else distinguishes them.
type TransactionOutput struct {
	_        struct{} `cbor:",toarray"`
	Value    uint64
	UniqueID uuid.UUID
	Owner    signature.PublicKey
}

// NewOutput constructs an output paying value to owner, with a fresh random
// UniqueID.
func NewOutput(value uint64, owner signature.PublicKey) TransactionOutput {
	return TransactionOutput{
		Value:    value,
		UniqueID: uuid.New(),
		Owner:    owner,
	}
}

// Hash returns the output's content hash, computed over its canonical CBOR
// encoding. This is the value a TransactionInput's PrevOutputHash must
// match to reference this output.
func (o TransactionOutput) Hash() (hash.Hash256, error) {
	data, err := o.MarshalCBOR()
	if err != nil {
		return hash.Hash256{}, fmt.Errorf("coin: hashing output: %w", err)
	}
	return hash.OfBytes(data), nil
}

// MarshalCBOR encodes the output using canonical, deterministic encoding so
// two nodes that construct the identical output produce identical bytes
// (spec P8).
func (o TransactionOutput) MarshalCBOR() ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	type wire TransactionOutput
	return mode.Marshal(wire(o))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (o *TransactionOutput) UnmarshalCBOR(data []byte) error {
	type wire TransactionOutput
	var w wire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = TransactionOutput(w)
	return nil
}
