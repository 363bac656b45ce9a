package cliapp

import (
	"fmt"
	"io"

	"github.com/ashlarsec/cryptolens/pkg/version"
)

// RunVersion prints the engine's version string to out.
func RunVersion(out io.Writer) error {
	_, err := fmt.Fprintf(out, "cryptolens %s\n", version.EngineVersion())
	return err
}
