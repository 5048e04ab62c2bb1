package main

import (
	"os"

	"github.com/medrota/rosterd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
