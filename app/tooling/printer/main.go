// This program prints a human-readable summary of a .tx.cbor or
// .block.cbor offline artifact, without needing a running node. It guesses
// which by trying to decode as a block first, falling back to a
// transaction, since both share the same CBOR framing with no outer tag.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/coin"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.String("in", "", "Path to a .tx.cbor or .block.cbor file.")
	flag.Parse()

	if *path == "" {
		return fmt.Errorf("-in is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *path, err)
	}

	var blk coin.Block
	if err := cbor.Unmarshal(data, &blk); err == nil && len(blk.Transactions) > 0 {
		printBlock(blk)
		return nil
	}

	var tx coin.Transaction
	if err := tx.UnmarshalCBOR(data); err != nil {
		return fmt.Errorf("%s does not decode as a block or a transaction: %w", *path, err)
	}
	printTransaction(tx, "")
	return nil
}

func printBlock(blk coin.Block) {
	h, _ := blk.Hash()
	fmt.Printf("block:        %s\n", h)
	fmt.Printf("prev:         %s\n", blk.Header.PrevBlockHash)
	fmt.Printf("timestamp:    %s\n", blk.Header.Timestamp)
	fmt.Printf("nonce:        %d\n", blk.Header.Nonce)
	fmt.Printf("target:       %s\n", blk.Header.Target)
	fmt.Printf("merkle root:  %s\n", blk.Header.MerkleRoot)
	fmt.Printf("transactions: %d\n\n", len(blk.Transactions))

	for i, tx := range blk.Transactions {
		label := fmt.Sprintf("tx[%d]", i)
		if tx.IsCoinbase() {
			label += " (coinbase)"
		}
		printTransaction(tx, label)
	}
}

func printTransaction(tx coin.Transaction, label string) {
	h, _ := tx.Hash()
	if label != "" {
		fmt.Printf("%s %s\n", label, h)
	} else {
		fmt.Printf("transaction: %s\n", h)
	}
	for _, in := range tx.Inputs {
		fmt.Printf("  in:  %s\n", in.PrevOutputHash)
	}
	for _, out := range tx.Outputs {
		fmt.Printf("  out: %d sat -> %s\n", out.Value, out.Owner)
	}
	fmt.Println()
}
