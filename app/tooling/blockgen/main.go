// This program assembles and mines a single block offline, outside of a
// running node: it seeds a fresh chain's mempool with caller-supplied
// transactions, builds a template against it, and brute-forces a nonce
// until the template's target is met. It exists for generating genesis
// blocks and test fixtures without a node/miner pair talking over the
// wire protocol.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/coreledger/coreledger/foundation/blockchain/chain"
	"github.com/coreledger/coreledger/foundation/blockchain/coin"
	"github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	pkPath := flag.String("pk", "", "Path to the coinbase recipient's public key (SPKI/PEM).")
	target := flag.String("target", "", "Hex proof-of-work target. Defaults to the consensus minimum target.")
	txPaths := flag.String("txs", "", "Comma-separated paths to CBOR-encoded transactions to include.")
	out := flag.String("out", "block.cbor", "Path to write the mined block to.")
	flag.Parse()

	if *pkPath == "" {
		return fmt.Errorf("-pk is required")
	}

	pk, err := loadPublicKey(*pkPath)
	if err != nil {
		return fmt.Errorf("loading coinbase key: %w", err)
	}

	p := params.Defaults()
	bc := chain.New(p, nil)

	if *target != "" {
		v, ok := new(big.Int).SetString(*target, 16)
		if !ok {
			return fmt.Errorf("%q is not a valid hex target", *target)
		}
		// A fresh chain's target is always the consensus minimum (it is
		// only set via New/Load), so any other requested target is
		// rejected rather than silently ignored.
		if v.Cmp(p.MinTargetValue()) != 0 {
			return fmt.Errorf("-target must currently equal the consensus minimum target (%s); custom mid-chain targets require a running chain", p.MinTarget)
		}
	}

	if *txPaths != "" {
		for _, path := range strings.Split(*txPaths, ",") {
			tx, err := loadTransaction(strings.TrimSpace(path))
			if err != nil {
				return fmt.Errorf("loading transaction %s: %w", path, err)
			}
			if _, err := bc.SubmitTransaction(tx); err != nil {
				return fmt.Errorf("admitting transaction %s: %w", path, err)
			}
		}
	}

	tmpl, err := bc.BuildTemplate(pk)
	if err != nil {
		return fmt.Errorf("building template: %w", err)
	}

	blk, found := mine(tmpl, 100_000_000)
	if !found {
		return fmt.Errorf("exhausted nonce space without meeting target")
	}

	data, err := cbor.Marshal(blk)
	if err != nil {
		return fmt.Errorf("encoding block: %w", err)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return fmt.Errorf("writing block: %w", err)
	}

	blkHash, err := blk.Hash()
	if err != nil {
		return fmt.Errorf("hashing block: %w", err)
	}
	fmt.Println("block: ", blkHash)
	fmt.Println("nonce: ", blk.Header.Nonce)
	fmt.Println("written to:", *out)
	return nil
}

// mine brute-forces the header's nonce until its hash satisfies its
// target, mirroring the miner's CPU thread (spec §4.11) but single-shot
// and without an IO thread to hand results off to.
func mine(blk coin.Block, maxAttempts uint64) (coin.Block, bool) {
	for i := uint64(0); i < maxAttempts; i++ {
		ok, err := blk.Header.MatchesTarget()
		if err == nil && ok {
			return blk, true
		}
		blk.Header.Nonce++
		if blk.Header.Nonce == 0 {
			blk.Header.Timestamp = time.Now().UTC()
		}
	}
	return coin.Block{}, false
}

func loadPublicKey(path string) (signature.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PublicKey{}, err
	}
	return signature.ParseSPKI(data)
}

func loadTransaction(path string) (coin.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return coin.Transaction{}, err
	}
	var tx coin.Transaction
	if err := tx.UnmarshalCBOR(data); err != nil {
		return coin.Transaction{}, err
	}
	return tx, nil
}
