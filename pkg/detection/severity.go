package detection

import (
	"strings"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
)

// DefaultSeverity is applied when a rule's declared severity is empty,
// per the "severity defaults to med if a rule omits it" invariant.
const DefaultSeverity = SeverityMed

var apiFamilyNames = []string{"openssl", "cng", "capi", "libgcrypt"}

// ClassifyText assigns the final evidence type and severity for a hit
// found by the string/regex search engine, given the algorithm label the
// matching pattern carries and whether the hit occurred while scanning an
// X.509 signature algorithm field. This is the sole authoritative table;
// the fallback branch uses the pattern's own declared severity (or
// DefaultSeverity) for anything the table doesn't call out by name.
func ClassifyText(algoLabel, declaredSeverity string, inX509SigContext bool) (evidenceType, severity string) {
	label := strings.ToLower(algoLabel)
	switch {
	case strings.Contains(label, "oid dotted"):
		return EvidenceOID, SeverityHigh
	case strings.Contains(label, "pem header"):
		return EvidenceText, SeverityMed
	case containsAny(label, apiFamilyNames):
		return EvidenceText, SeverityMed
	case strings.Contains(label, "md5") || strings.Contains(label, "sha-1") || strings.Contains(label, "sha1"):
		if inX509SigContext {
			return EvidenceText, SeverityHigh
		}
		return EvidenceText, SeverityMed
	default:
		if declaredSeverity == "" {
			declaredSeverity = DefaultSeverity
		}
		return EvidenceText, declaredSeverity
	}
}

// ClassifyByteKind maps a BytePattern's kind to its final evidence type
// and severity per §4.9: structural/high-signal byte kinds (OID, curve
// parameters, primes, constant tables) are high severity; a bare ASCII
// byte hit is low; a raw X.509 signature-algorithm byte marker is high;
// anything else is med.
func ClassifyByteKind(kind catalog.BytePatternKind) (evidenceType, severity string) {
	switch kind {
	case catalog.KindOID, catalog.KindASN1OID:
		return EvidenceOID, SeverityHigh
	case catalog.KindCurveParm:
		return EvidenceCurve, SeverityHigh
	case catalog.KindPrime:
		return EvidencePrime, SeverityHigh
	case catalog.KindConst:
		return EvidenceConst, SeverityHigh
	case catalog.KindAscii:
		return EvidenceText, SeverityLow
	case catalog.KindSigMD5, catalog.KindSigSHA1:
		return EvidenceX509, SeverityHigh
	default:
		return EvidenceBytes, SeverityMed
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
