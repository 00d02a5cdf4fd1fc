// Package main is the entry point for estatehub-manage.
package main

import (
	"fmt"
	"os"

	"estatehub_backend/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
