// Package model holds the small serializable types shared between the
// scanner core and its CLI/cache callers.
package model

import "github.com/ashlarsec/cryptolens/pkg/scanner"

// ScanOptions is the CLI/cache layer's option set: the core pipeline's
// Options embedded, plus fields the core scanner never inspects.
type ScanOptions struct {
	scanner.Options
	CachePath string // "" disables the incremental-scan cache
	Progress  bool   // stream progress updates instead of a single batch result
}
