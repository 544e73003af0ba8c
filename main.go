// Package main is the entry point for the forkstream tool.
package main

import (
	"fmt"
	"os"

	"github.com/stssrv/forkstream/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
