// This program is the wallet CLI entry point: it just hands off to the
// cobra command tree in ./cmd.
package main

import (
	"github.com/coreledger/coreledger/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
