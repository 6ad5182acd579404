package main

import (
	"github.com/slotd/slotd/cmd/slotd/cli"
)

func main() {
	cli.ParseFlags()

	if cli.Flags.ShowVersion {
		cli.ShowVersion()
		return
	}

	cli.Serve()
}
