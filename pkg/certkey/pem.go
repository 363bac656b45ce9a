// Package certkey implements the PEM/DER demultiplexer: detect PEM vs
// raw DER, decode every PEM block, and route each resulting blob through
// the byte/string search engine.
package certkey

import (
	"encoding/pem"
	"fmt"
	"strconv"
	"strings"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
	"github.com/ashlarsec/cryptolens/pkg/search"
)

// IsPEM reports whether data contains both a "-----BEGIN " and a
// "-----END " sentinel line, the minimal signal this scanner uses to
// distinguish PEM text from raw DER/binary content.
func IsPEM(data []byte) bool {
	s := string(data)
	return strings.Contains(s, "-----BEGIN ") && strings.Contains(s, "-----END ")
}

// Scan is the certificate/key scanner entry point. filePath is the
// canonical path the caller resolved (a bare file, or an
// "<archive>::<entry>" form); it is used as the base for PEM multi-block
// naming.
func Scan(filePath string, data []byte, regexes []catalog.RegexPattern, bytePatterns []catalog.BytePattern) []detection.Detection {
	if !IsPEM(data) {
		return scanDER(filePath, data, regexes, bytePatterns)
	}
	return scanPEM(filePath, data, regexes, bytePatterns)
}

func scanPEM(filePath string, data []byte, regexes []catalog.RegexPattern, bytePatterns []catalog.BytePattern) []detection.Detection {
	var blocks [][]byte
	rest := data
	for {
		var blk *pem.Block
		blk, rest = pem.Decode(rest)
		if blk == nil {
			break
		}
		blocks = append(blocks, blk.Bytes)
	}
	if len(blocks) == 0 {
		// Sentinels present but base64 payload didn't decode; fall back
		// to scanning the raw text as a DecodeError-tolerant DER blob.
		return scanDER(filePath, data, regexes, bytePatterns)
	}

	var out []detection.Detection
	for i, der := range blocks {
		path := filePath
		if len(blocks) > 1 {
			path = fmt.Sprintf("%s::block#%s", filePath, strconv.Itoa(i+1))
		}
		out = append(out, scanDER(path, der, regexes, bytePatterns)...)
	}
	return out
}

// scanDER applies the byte/string search engine to a single DER (or
// otherwise binary) blob, classifying every hit per the certificate
// scanner's evidence rules: OID/curve/prime/const byte hits are high
// severity, everything else falls to the shared byte/text classifier.
func scanDER(filePath string, der []byte, regexes []catalog.RegexPattern, bytePatterns []catalog.BytePattern) []detection.Detection {
	var out []detection.Detection

	for _, hit := range search.ScanBytes(der, bytePatterns) {
		ev, sev := detection.ClassifyByteKind(hit.Kind)
		out = append(out, detection.Detection{
			FilePath: filePath, Position: hit.Offset, Algorithm: hit.Algo,
			Match: hit.Match, EvidenceType: ev, Severity: sev,
		})
	}

	runs := search.ExtractAsciiRuns(der)
	for _, hit := range search.ScanStrings(runs, regexes) {
		ev, sev := detection.ClassifyText(hit.Algo, hit.Severity, isSignatureContext(hit.Algo))
		out = append(out, detection.Detection{
			FilePath: filePath, Position: hit.Offset, Algorithm: hit.Algo,
			Match: hit.Match, EvidenceType: ev, Severity: sev,
		})
	}
	return out
}

// isSignatureContext reports whether a text hit's algorithm label reads
// like a certificate signatureAlgorithm field, which the classifier uses
// to elevate MD5/SHA-1 text hits to high severity.
func isSignatureContext(algoLabel string) bool {
	l := strings.ToLower(algoLabel)
	return strings.Contains(l, "signature") || strings.Contains(l, "withrsa") || strings.Contains(l, "sig")
}
