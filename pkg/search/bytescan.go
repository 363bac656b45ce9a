package search

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
)

// ByteHit is one needle match found in raw content.
type ByteHit struct {
	PatternName string
	Algo        string
	Severity    string
	Evidence    string
	Kind        catalog.BytePatternKind
	Match       string // uppercase hex rendering of the needle
	Offset      int
}

// ScanBytes searches data for each pattern's needle, applying a 3-tier
// advancement policy after every hit so highly repetitive needles don't
// produce a hit-per-byte flood while still allowing overlapping matches
// for anything with real entropy:
//
//   - an all-same-byte needle (e.g. 0x00 0x00 0x00 0x00) advances past the
//     entire maximal run of that byte value;
//   - a needle with two or fewer distinct byte values among any run of 16+
//     bytes advances by exactly the needle's length;
//   - any other needle advances by 1, allowing overlapping matches.
func ScanBytes(data []byte, patterns []catalog.BytePattern) []ByteHit {
	var hits []ByteHit
	for _, p := range patterns {
		needle := p.Needle
		if len(needle) == 0 || len(data) < len(needle) {
			continue
		}
		sameVal, allSame := isAllSameByte(needle)
		lowEntropy := isLowEntropyPattern(needle)

		pos := 0
		for pos <= len(data)-len(needle) {
			idx := bytes.Index(data[pos:], needle)
			if idx < 0 {
				break
			}
			off := pos + idx
			hits = append(hits, ByteHit{
				PatternName: p.Name,
				Algo:        p.Algo,
				Severity:    p.Severity,
				Evidence:    p.Evidence,
				Kind:        p.Kind,
				Match:       strings.ToUpper(hex.EncodeToString(needle)),
				Offset:      off,
			})

			switch {
			case allSame:
				j := off + len(needle)
				for j < len(data) && data[j] == sameVal {
					j++
				}
				pos = j
			case lowEntropy:
				pos = off + len(needle)
			default:
				pos = off + 1
			}
		}
	}
	return hits
}

func isAllSameByte(needle []byte) (val byte, ok bool) {
	if len(needle) == 0 {
		return 0, false
	}
	val = needle[0]
	for _, b := range needle[1:] {
		if b != val {
			return 0, false
		}
	}
	return val, true
}

// isLowEntropyPattern matches the original C++ heuristic: only patterns
// at least 16 bytes long are considered, and only if the first 16+ bytes
// contain two or fewer distinct byte values.
func isLowEntropyPattern(needle []byte) bool {
	if len(needle) < 16 {
		return false
	}
	var seen [256]bool
	distinct := 0
	for _, b := range needle {
		if !seen[b] {
			seen[b] = true
			distinct++
			if distinct > 2 {
				break
			}
		}
	}
	return distinct <= 2
}
