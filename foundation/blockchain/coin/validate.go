package coin

import (
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

// Resolver looks up an unspent output by its hash. The chain package's
// UTXO set and per-block shadow views both implement this.
type Resolver interface {
	Resolve(h hash.Hash256) (TransactionOutput, bool)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(h hash.Hash256) (TransactionOutput, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(h hash.Hash256) (TransactionOutput, bool) {
	return f(h)
}

// ValidateStandalone validates tx against a UTXO view per spec §4.3 and
// returns its fee (zero for a coinbase, whose sum constraint is enforced
// only at the block layer, §4.5).
func ValidateStandalone(tx Transaction, view Resolver) (fee uint64, err error) {
	if tx.IsCoinbase() {
		return 0, nil
	}

	if tx.HasDuplicateInputs() {
		return 0, chainerr.New(chainerr.DuplicateInput, "transaction spends the same output twice")
	}

	var inputSum uint64
	for _, in := range tx.Inputs {
		out, ok := view.Resolve(in.PrevOutputHash)
		if !ok {
			return 0, chainerr.New(chainerr.UnknownInput, "input references unknown output %s", in.PrevOutputHash)
		}
		if !in.Verify(out.Owner) {
			return 0, chainerr.New(chainerr.InvalidSignature, "signature does not verify against output owner")
		}

		next := inputSum + out.Value
		if next < inputSum {
			return 0, chainerr.New(chainerr.InvalidTransaction, "input sum overflows u64")
		}
		inputSum = next
	}

	outputSum, err := tx.OutputSum()
	if err != nil {
		return 0, err
	}

	if outputSum > inputSum {
		return 0, chainerr.New(chainerr.InsufficientInputValue, "outputs (%d) exceed inputs (%d)", outputSum, inputSum)
	}

	return inputSum - outputSum, nil
}
