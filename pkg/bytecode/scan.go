package bytecode

import (
	"strconv"
	"strings"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
	"github.com/ashlarsec/cryptolens/pkg/search"
)

// nearbyIntWindow bounds how many integer constants after a matched
// method reference are inspected for keysize evidence.
const nearbyIntWindow = 6

// keyPairGenInitClass and keyPairGenInitMethod name the internal-form
// method reference this scanner correlates keysize literals against.
const keyPairGenInitClass = "java/security/KeyPairGenerator"
const keyPairGenInitMethod = "initialize"

// Scan parses a single .class file's bytes and evaluates every
// method_call AstRule plus every regex pattern (against the UTF-8
// constant pool treated as AsciiRuns) and the KeyPairGenerator.initialize
// keysize correlation. filePath is the caller-supplied canonical path
// (a bare file, or "<archive>::<entry>").
func Scan(filePath string, data []byte, regexes []catalog.RegexPattern, rules []catalog.AstRule) []detection.Detection {
	cf, err := Parse(data)
	if cf == nil {
		_ = err
		return nil
	}

	var out []detection.Detection

	// UTF-8 constants become AsciiRuns; offsets aren't meaningful in a
	// constant pool, so every run gets offset 0, and each hit is reported
	// under evidenceType "bytecode" with a line of 1.
	runs := make([]catalog.AsciiRun, len(cf.Utf8Constants))
	for i, s := range cf.Utf8Constants {
		runs[i] = catalog.AsciiRun{Offset: 0, Text: s}
	}
	for _, hit := range search.ScanStrings(runs, regexes) {
		out = append(out, detection.Detection{
			FilePath: filePath, Position: 1, Algorithm: hit.Algo, Match: hit.Match,
			EvidenceType: detection.EvidenceBytecode, Severity: fallback(hit.Severity),
		})
	}

	for _, rule := range rules {
		if rule.Kind != catalog.KindMethodCall {
			continue
		}
		out = append(out, evalMethodCallRule(filePath, cf, rule)...)
	}

	out = append(out, keyPairGenKeysize(filePath, cf)...)

	return out
}

func evalMethodCallRule(filePath string, cf *ClassFile, rule catalog.AstRule) []detection.Detection {
	wantClass, wantMethod := splitFullname(rule.Fullname)
	var out []detection.Detection
	for pos, ref := range cf.MethodRefs {
		if ref.Class != wantClass || ref.Method != wantMethod {
			continue
		}
		match := ref.Class + "." + ref.Method
		if rule.ArgRegex != nil {
			found := false
			for _, s := range nearbyStrings(cf, pos, nearbyIntWindow) {
				if rule.ArgRegex.MatchString(s) {
					match = s
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, detection.Detection{
			FilePath: filePath, Position: 1, Algorithm: rule.Algo, Match: match,
			EvidenceType: detection.EvidenceBytecode, Severity: fallback(rule.Severity),
		})
	}
	return out
}

func keyPairGenKeysize(filePath string, cf *ClassFile) []detection.Detection {
	var out []detection.Detection
	for pos, ref := range cf.MethodRefs {
		if ref.Class != keyPairGenInitClass || ref.Method != keyPairGenInitMethod {
			continue
		}
		ints := cf.NearbyInts(pos, nearbyIntWindow)
		if len(ints) == 0 {
			continue
		}
		out = append(out, detection.Detection{
			FilePath: filePath, Position: 1, Algorithm: "KeyPairGenerator.bits",
			Match: strconv.Itoa(int(ints[0])), EvidenceType: detection.EvidenceBytecode, Severity: detection.SeverityHigh,
		})
	}
	return out
}

// nearbyStrings mirrors NearbyInts but for UTF-8 constants, used to find
// arg_regex evidence near a matched method reference.
func nearbyStrings(cf *ClassFile, methodRefPos, window int) []string {
	var found []string
	afterTarget := false
	seenMethodRef := 0
	taken := 0
	for _, o := range cf.order {
		if o.kind == 'm' {
			if seenMethodRef == methodRefPos {
				afterTarget = true
			}
			seenMethodRef++
			continue
		}
		if afterTarget && o.kind == 'u' {
			found = append(found, cf.Utf8Constants[o.pos])
			taken++
			if taken >= window {
				break
			}
		}
	}
	return found
}

func splitFullname(fullname string) (class, method string) {
	i := strings.LastIndex(fullname, ".")
	if i < 0 {
		return "", fullname
	}
	return strings.ReplaceAll(fullname[:i], ".", "/"), fullname[i+1:]
}

func fallback(s string) string {
	if s == "" {
		return detection.DefaultSeverity
	}
	return s
}
