// Package main is the entry point for ledgerctl.
package main

import (
	"os"

	"github.com/peterpeto56u-code/MarcoERP-sub005/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
