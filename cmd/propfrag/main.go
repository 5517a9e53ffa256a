package main

import (
	"os"

	"github.com/propfrag/propfrag/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
