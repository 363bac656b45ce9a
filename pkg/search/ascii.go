// Package search implements the string/byte search engine: printable
// -ASCII run extraction, regex matching over extracted strings, and
// byte-needle matching over raw content.
package search

import "github.com/ashlarsec/cryptolens/pkg/catalog"

// MinAsciiRunLength is the shortest printable-ASCII run worth reporting;
// shorter runs are almost always noise (padding, alignment bytes).
const MinAsciiRunLength = 4

// ExtractAsciiRuns scans data for maximal runs of printable ASCII bytes
// (0x20-0x7E inclusive) at least MinAsciiRunLength long, tagging each with
// its absolute starting offset in data.
func ExtractAsciiRuns(data []byte) []catalog.AsciiRun {
	var out []catalog.AsciiRun
	start := -1
	for i := 0; i <= len(data); i++ {
		printable := i < len(data) && data[i] >= 0x20 && data[i] <= 0x7E
		switch {
		case printable && start < 0:
			start = i
		case !printable && start >= 0:
			if i-start >= MinAsciiRunLength {
				out = append(out, catalog.AsciiRun{Offset: start, Text: string(data[start:i])})
			}
			start = -1
		}
	}
	return out
}
