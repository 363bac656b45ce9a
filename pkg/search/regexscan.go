package search

import "github.com/ashlarsec/cryptolens/pkg/catalog"

// RegexHit is one regex match found inside an extracted ASCII run,
// carrying the run's absolute base offset already folded in.
type RegexHit struct {
	PatternName string
	Algo        string
	Severity    string
	Evidence    string
	Match       string
	Offset      int
}

// ScanStrings runs every regex pattern against every extracted run,
// reporting one hit per non-overlapping match with the run's offset
// folded into an absolute file offset.
func ScanStrings(runs []catalog.AsciiRun, patterns []catalog.RegexPattern) []RegexHit {
	var hits []RegexHit
	for _, p := range patterns {
		if p.Compiled == nil {
			continue
		}
		for _, run := range runs {
			locs := p.Compiled.FindAllStringIndex(run.Text, -1)
			for _, loc := range locs {
				hits = append(hits, RegexHit{
					PatternName: p.Name,
					Algo:        p.Algo,
					Severity:    p.Severity,
					Evidence:    p.Evidence,
					Match:       run.Text[loc[0]:loc[1]],
					Offset:      run.Offset + loc[0],
				})
			}
		}
	}
	return hits
}
