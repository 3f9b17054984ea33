package main

import (
	"os"

	"github.com/mwatts/fxpilot/cmd/fxpilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
