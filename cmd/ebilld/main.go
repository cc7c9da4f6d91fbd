// ebilld is the bill engine's standalone daemon: it wires billservice to a
// bbolt-backed store and an Esplora payment oracle, runs the periodic
// payment/timeout sweep, and exposes a couple of CLI subcommands for local
// testing. Grounded on lnd's own cmd/lncli urfave/cli style, since the
// pristine pack never carried a top-level lnd cmd/lnd entrypoint of its own.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "ebilld"
	app.Usage = "bitcredit bill registry daemon"
	app.Commands = []cli.Command{
		runCommand,
		issueCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ebilld: %v\n", err)
		os.Exit(1)
	}
}
