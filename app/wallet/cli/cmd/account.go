package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print this wallet's public key, in the SPKI/PEM form a sender shares",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	pemBytes, err := privateKey.Public().MarshalSPKI()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(pemBytes))
}
