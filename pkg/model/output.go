package model

import "github.com/ashlarsec/cryptolens/pkg/detection"

// ScanSummary tallies a scan's detections by severity, for a quick
// human-facing readout without walking the full detection list.
type ScanSummary struct {
	Target       string         `json:"target"`
	TotalFiles   int            `json:"total_files"`
	TotalHits    int            `json:"total_hits"`
	BySeverity   map[string]int `json:"by_severity"`
	Backend      string         `json:"backend,omitempty"`
}

// ScanOutput is the CLI's JSON envelope around a batch scan's results.
type ScanOutput struct {
	Summary    ScanSummary            `json:"summary"`
	Detections []detection.Detection  `json:"detections"`
}

// Summarize builds a ScanSummary from a completed detection list.
func Summarize(target string, totalFiles int, dets []detection.Detection) ScanSummary {
	s := ScanSummary{Target: target, TotalFiles: totalFiles, TotalHits: len(dets), BySeverity: map[string]int{}}
	for _, d := range dets {
		s.BySeverity[d.Severity]++
	}
	return s
}
