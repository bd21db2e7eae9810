package main

import (
	"os"

	"github.com/randalmurphal/ss7kit/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
