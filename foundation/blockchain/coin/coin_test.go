package coin_test

import (
	"testing"
	"time"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
	"github.com/coreledger/coreledger/foundation/chainerr"
)

func mustKey(t *testing.T) signature.PrivateKey {
	t.Helper()
	pk, err := signature.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}
	return pk
}

func Test_CoinbaseHasNoInputs(t *testing.T) {
	pk := mustKey(t)
	tx := coin.Transaction{
		Outputs: []coin.TransactionOutput{coin.NewOutput(5_000_000_000, pk.Public())},
	}
	if !tx.IsCoinbase() {
		t.Fatalf("expected inputless transaction to be a coinbase")
	}
}

func Test_ValidateStandalone_Success(t *testing.T) {
	owner := mustKey(t)
	recipient := mustKey(t)

	out := coin.NewOutput(10_000_000, owner.Public())
	outHash, err := out.Hash()
	if err != nil {
		t.Fatalf("hashing output: %s", err)
	}

	in, err := coin.NewInput(outHash, owner)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	tx := coin.Transaction{
		Inputs:  []coin.TransactionInput{in},
		Outputs: []coin.TransactionOutput{coin.NewOutput(9_000_000, recipient.Public())},
	}

	view := coin.ResolverFunc(func(h hash.Hash256) (coin.TransactionOutput, bool) {
		if h.Equal(outHash) {
			return out, true
		}
		return coin.TransactionOutput{}, false
	})

	fee, err := coin.ValidateStandalone(tx, view)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fee != 1_000_000 {
		t.Fatalf("expected fee 1000000, got %d", fee)
	}
}

func Test_ValidateStandalone_UnknownInput(t *testing.T) {
	owner := mustKey(t)
	bogusHash, err := hash.Of("nonexistent")
	if err != nil {
		t.Fatalf("hashing placeholder: %s", err)
	}

	in, err := coin.NewInput(bogusHash, owner)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	tx := coin.Transaction{Inputs: []coin.TransactionInput{in}}
	view := coin.ResolverFunc(func(hash.Hash256) (coin.TransactionOutput, bool) {
		return coin.TransactionOutput{}, false
	})

	_, err = coin.ValidateStandalone(tx, view)
	if !chainerr.IsKind(err, chainerr.UnknownInput) {
		t.Fatalf("expected UnknownInput, got %v", err)
	}
}

func Test_ValidateStandalone_InsufficientInputValue(t *testing.T) {
	owner := mustKey(t)
	out := coin.NewOutput(100, owner.Public())
	outHash, err := out.Hash()
	if err != nil {
		t.Fatalf("hashing output: %s", err)
	}

	in, err := coin.NewInput(outHash, owner)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	tx := coin.Transaction{
		Inputs:  []coin.TransactionInput{in},
		Outputs: []coin.TransactionOutput{coin.NewOutput(1000, owner.Public())},
	}

	view := coin.ResolverFunc(func(h hash.Hash256) (coin.TransactionOutput, bool) {
		if h.Equal(outHash) {
			return out, true
		}
		return coin.TransactionOutput{}, false
	})

	_, err = coin.ValidateStandalone(tx, view)
	if !chainerr.IsKind(err, chainerr.InsufficientInputValue) {
		t.Fatalf("expected InsufficientInputValue, got %v", err)
	}
}

func Test_ValidateStandalone_DuplicateInput(t *testing.T) {
	owner := mustKey(t)
	out := coin.NewOutput(100, owner.Public())
	outHash, err := out.Hash()
	if err != nil {
		t.Fatalf("hashing output: %s", err)
	}

	in, err := coin.NewInput(outHash, owner)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	tx := coin.Transaction{Inputs: []coin.TransactionInput{in, in}}
	view := coin.ResolverFunc(func(h hash.Hash256) (coin.TransactionOutput, bool) {
		return out, true
	})

	_, err = coin.ValidateStandalone(tx, view)
	if !chainerr.IsKind(err, chainerr.DuplicateInput) {
		t.Fatalf("expected DuplicateInput, got %v", err)
	}
}

func Test_BlockValidateStructure_RejectsMissingCoinbase(t *testing.T) {
	pk := mustKey(t)
	out := coin.NewOutput(1, pk.Public())
	outHash, err := out.Hash()
	if err != nil {
		t.Fatalf("hashing output: %s", err)
	}
	in, err := coin.NewInput(outHash, pk)
	if err != nil {
		t.Fatalf("building input: %s", err)
	}

	// A transaction with an input is not a coinbase, so a block containing
	// only this transaction has zero coinbases.
	tx := coin.Transaction{
		Inputs:  []coin.TransactionInput{in},
		Outputs: []coin.TransactionOutput{out},
	}

	blk := coin.Block{
		Header: coin.BlockHeader{
			Timestamp: time.Now().UTC(),
		},
		Transactions: []coin.Transaction{tx},
	}

	if err := blk.ValidateStructure(nil); err == nil {
		t.Fatalf("expected ValidateStructure to reject a block with no coinbase")
	} else if !chainerr.IsKind(err, chainerr.BadCoinbase) {
		t.Fatalf("expected BadCoinbase, got %v", err)
	}
}
