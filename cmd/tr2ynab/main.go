// Package main is the entry point for the tr2ynab CLI.
package main

import (
	"os"

	"github.com/tr2ynab/tr2ynab/cmd/tr2ynab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
