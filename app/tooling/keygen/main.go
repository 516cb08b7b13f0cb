// This program generates a secp256k1 key pair for use by the node, the
// miner, or the wallet, without going through the wallet CLI's account
// directory conventions.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "key.ecdsa", "Path to write the private key to.")
	flag.Parse()

	privateKey, err := signature.GenerateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	data, err := privateKey.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshaling private key: %w", err)
	}
	if err := os.WriteFile(*out, data, 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	pubPath := *out + ".pub"
	pemBytes, err := privateKey.Public().MarshalSPKI()
	if err != nil {
		return fmt.Errorf("marshaling public key: %w", err)
	}
	if err := os.WriteFile(pubPath, pemBytes, 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	fmt.Println("private key:", *out)
	fmt.Println("public key: ", pubPath)
	return nil
}
