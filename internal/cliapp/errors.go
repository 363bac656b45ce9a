// Package cliapp holds the command implementations behind cmd/cryptolens's
// subcommands, kept separate from main() so they stay unit-testable.
package cliapp

import (
	"fmt"
	"os"
)

// ExitError prints err to stderr and exits with status 1.
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "cryptolens: %v\n", err)
	os.Exit(1)
}
