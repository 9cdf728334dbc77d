package main

import (
	"os"

	"github.com/danielhkuo/squareledger/cmd/wardctl/commands"
)

func main() {
	// Errors are printed by the commands themselves with color formatting
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
