package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new secp256k1 key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	data, err := privateKey.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(accountPath, 0700); err != nil {
		log.Fatal(err)
	}

	path := getPrivateKeyPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		log.Fatal(err)
	}

	pubPath := path + ".pub"
	pemBytes, err := privateKey.Public().MarshalSPKI()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pemBytes, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Println("private key:", path)
	fmt.Println("public key: ", pubPath)
}
