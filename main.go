package main

import (
	"os"

	"github.com/docstitch/docstitch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
