// Package main is the entry point for gamesniff.
package main

import (
	"fmt"
	"os"

	"gamesniff/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
