// Package detection defines the Detection record, the severity/evidence
// classifier, and cross-scanner deduplication.
package detection

import "fmt"

// Evidence type labels. These are the only values that appear in
// Detection.EvidenceType.
const (
	EvidenceText     = "text"
	EvidenceOID      = "oid"
	EvidenceBytes    = "bytes"
	EvidenceAst      = "ast"
	EvidenceBytecode = "bytecode"
	EvidenceX509     = "x509"
	EvidenceCurve    = "curve"
	EvidencePrime    = "prime"
	EvidenceConst    = "const"
)

// Severity labels, low to high.
const (
	SeverityInfo = "info"
	SeverityLow  = "low"
	SeverityMed  = "med"
	SeverityHigh = "high"
)

// Detection is the sole output record of the scanning pipeline. All six
// fields are always populated.
type Detection struct {
	FilePath     string
	Position     int // byte offset for byte/string evidence, 1-based line for ast/bytecode
	Algorithm    string
	Match        string
	EvidenceType string
	Severity     string
}

// Key returns the stable deduplication key described in §4.10 of the
// scanner design: filePath|position|algorithm|match|evidenceType.
func (d Detection) Key() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", d.FilePath, d.Position, d.Algorithm, d.Match, d.EvidenceType)
}
