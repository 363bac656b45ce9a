package cliapp

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
)

// RunPatternsExport loads the active pattern catalog and writes a
// snapshot of it to destPath. If no patterns file is found, it exports
// whatever the (empty) active catalog holds — the error is still
// reported so the operator knows the snapshot is empty, not silently
// swallowed.
func RunPatternsExport(destPath string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cat, _, loadErr := catalog.Load(logger)
	if err := catalog.Export(cat, destPath); err != nil {
		return fmt.Errorf("export patterns: %w", err)
	}
	if loadErr != nil {
		return fmt.Errorf("exported an empty catalog: %w", loadErr)
	}
	return nil
}

// RunPatternsInit writes a starter patterns.json, seeded from the
// curated baseline set, to destPath. Unlike RunPatternsExport this
// never depends on an existing patterns file being found.
func RunPatternsInit(destPath string) error {
	if err := catalog.WriteSeed(destPath); err != nil {
		return fmt.Errorf("init patterns: %w", err)
	}
	return nil
}

// RunPatternsList loads the active pattern catalog and prints a
// per-category count to out, along with the load error (if any) so an
// empty catalog is never mistaken for "nothing to detect here".
func RunPatternsList(out io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cat, path, err := catalog.Load(logger)
	fmt.Fprintf(out, "regex patterns:  %d\n", len(cat.Regexes))
	fmt.Fprintf(out, "byte patterns:   %d\n", len(cat.Bytes))
	fmt.Fprintf(out, "oid patterns:    %d\n", len(cat.Oids))
	fmt.Fprintf(out, "ast rules:       %d\n", len(cat.Ast))
	if err != nil {
		fmt.Fprintf(out, "source:          none (%s)\n", err)
		return nil
	}
	fmt.Fprintf(out, "source:          %s\n", path)
	return nil
}
