// This program builds a signed transaction offline, spending a single
// known UTXO, and writes it to disk as CBOR for later submission or
// inspection. It exists for generating test fixtures without running a
// node: the caller supplies the previous output's hash and value directly,
// since there is no UTXO set to query here.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/hash"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	from := flag.String("from", "", "Path to the spender's private key.")
	to := flag.String("to", "", "Path to the recipient's public key (SPKI/PEM).")
	utxo := flag.String("utxo", "", "Hex hash of the previous output being spent.")
	inputValue := flag.Uint64("input-value", 0, "Value of the previous output, in satoshis.")
	value := flag.Uint64("value", 0, "Amount to pay the recipient, in satoshis.")
	fee := flag.Uint64("fee", 0, "Fee to attach, in satoshis.")
	change := flag.String("change", "", "Path to a public key for the change output. Defaults to the spender.")
	out := flag.String("out", "tx.cbor", "Path to write the encoded transaction to.")
	flag.Parse()

	if *from == "" || *to == "" || *utxo == "" {
		return fmt.Errorf("-from, -to, and -utxo are required")
	}
	if *inputValue < *value+*fee {
		return fmt.Errorf("input value %d cannot cover value %d plus fee %d", *inputValue, *value, *fee)
	}

	sender, err := loadPrivateKey(*from)
	if err != nil {
		return fmt.Errorf("loading sender key: %w", err)
	}
	recipient, err := loadPublicKey(*to)
	if err != nil {
		return fmt.Errorf("loading recipient key: %w", err)
	}
	changeOwner := sender.Public()
	if *change != "" {
		changeOwner, err = loadPublicKey(*change)
		if err != nil {
			return fmt.Errorf("loading change key: %w", err)
		}
	}

	outHash, err := parseHash(*utxo)
	if err != nil {
		return fmt.Errorf("parsing utxo hash: %w", err)
	}

	in, err := coin.NewInput(outHash, sender)
	if err != nil {
		return fmt.Errorf("signing input: %w", err)
	}

	outputs := []coin.TransactionOutput{coin.NewOutput(*value, recipient)}
	if remainder := *inputValue - *value - *fee; remainder > 0 {
		outputs = append(outputs, coin.NewOutput(remainder, changeOwner))
	}

	tx := coin.Transaction{
		Inputs:  []coin.TransactionInput{in},
		Outputs: outputs,
	}

	data, err := tx.MarshalCBOR()
	if err != nil {
		return fmt.Errorf("encoding transaction: %w", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return fmt.Errorf("writing transaction: %w", err)
	}

	txHash, err := tx.Hash()
	if err != nil {
		return fmt.Errorf("hashing transaction: %w", err)
	}
	fmt.Println("transaction:", txHash)
	fmt.Println("written to: ", *out)
	return nil
}

func loadPrivateKey(path string) (signature.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PrivateKey{}, err
	}
	var pk signature.PrivateKey
	if err := pk.UnmarshalBinary(data); err != nil {
		return signature.PrivateKey{}, err
	}
	return pk, nil
}

func loadPublicKey(path string) (signature.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PublicKey{}, err
	}
	return signature.ParseSPKI(data)
}

func parseHash(s string) (hash.Hash256, error) {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return hash.Hash256{}, fmt.Errorf("%q is not a valid hex hash", s)
	}
	return hash.FromBig(v), nil
}
