package cmd

import (
	"fmt"
	"log"
	"net"

	"github.com/spf13/cobra"

	"github.com/coreledger/coreledger/foundation/blockchain/params"
	"github.com/coreledger/coreledger/foundation/blockchain/wire"
)

var nodeAddr string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "List this wallet's UTXOs and print its spendable balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&nodeAddr, "node", "n", "127.0.0.1:9080", "Address of the node.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := net.Dial("tcp", nodeAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := wire.WriteFrame(conn, &wire.FetchUTXOs{PK: privateKey.Public()}); err != nil {
		log.Fatal(err)
	}

	msg, err := wire.ReadFrame(conn)
	if err != nil {
		log.Fatal(err)
	}

	utxos, ok := msg.(*wire.UTXOs)
	if !ok {
		log.Fatalf("unexpected reply type %T", msg)
	}

	var spendable uint64
	for _, e := range utxos.Entries {
		status := "spendable"
		if e.Marked {
			status = "reserved"
		} else {
			spendable += e.Output.Value
		}
		fmt.Printf("%12d satoshis  %s\n", e.Output.Value, status)
	}

	fmt.Printf("\nspendable balance: %d satoshis (%.8f coins)\n", spendable, float64(spendable)/float64(params.Satoshis))
}
