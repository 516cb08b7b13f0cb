// Package cmd contains the wallet app's command tree.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coreledger/coreledger/foundation/blockchain/signature"
)

var (
	accountName string
	accountPath string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
}

var rootCmd = &cobra.Command{
	Use:   "app",
	Short: "A wallet for sending UTXO-model transactions to a node",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}
	return filepath.Join(accountPath, accountName)
}

// loadPrivateKey reads the private key at getPrivateKeyPath, in the fixed-
// width binary form signature.PrivateKey.MarshalBinary writes.
func loadPrivateKey() (signature.PrivateKey, error) {
	data, err := os.ReadFile(getPrivateKeyPath())
	if err != nil {
		return signature.PrivateKey{}, err
	}
	var pk signature.PrivateKey
	if err := pk.UnmarshalBinary(data); err != nil {
		return signature.PrivateKey{}, err
	}
	return pk, nil
}
