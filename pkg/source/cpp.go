package source

import (
	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
)

// callBitsWindow bounds how far past a call_bits callsite the scanner
// looks for a keysize integer literal.
const callBitsWindow = 80

// ScanCpp runs every cpp-lang AstRule against src.
func ScanCpp(filePath string, src []byte, rules []catalog.AstRule) []detection.Detection {
	cleaned := StripCpp(string(src))

	var out []detection.Detection
	for _, rule := range rules {
		if rule.Lang != catalog.LangCpp {
			continue
		}
		out = append(out, evalCppRule(filePath, cleaned, rule)...)
	}
	return out
}

func evalCppRule(filePath, cleaned string, rule catalog.AstRule) []detection.Detection {
	var out []detection.Detection
	emit := func(pos int, match string) {
		sev := rule.Severity
		if sev == "" {
			sev = detection.DefaultSeverity
		}
		out = append(out, detection.Detection{
			FilePath: filePath, Position: LineAt(cleaned, pos), Algorithm: rule.Algo,
			Match: match, EvidenceType: detection.EvidenceAst, Severity: sev,
		})
	}

	switch rule.Kind {
	case catalog.KindCall:
		for _, callee := range rule.Callees {
			re := calleeRegexBare(callee)
			for _, loc := range re.FindAllStringIndex(cleaned, -1) {
				emit(loc[0], callee)
			}
		}
	case catalog.KindCallFullname:
		re := calleeRegexBare(rule.Fullname)
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			emit(loc[0], rule.Fullname)
		}
	case catalog.KindCallFullnameArg:
		re := calleeRegexBare(rule.Fullname)
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			arg := extractFirstArg(cleaned, loc[1])
			if arg.present && !arg.isInt && rule.ArgRegex != nil && rule.ArgRegex.MatchString(arg.text) {
				emit(loc[0], rule.Fullname+"("+arg.text+")")
			}
		}
	case catalog.KindCallBits:
		minVal := rule.MinIntValue
		if minVal == 0 {
			minVal = 100
		}
		for _, callee := range rule.Callees {
			re := calleeRegexBare(callee)
			for _, loc := range re.FindAllStringIndex(cleaned, -1) {
				if v, text, ok := nearestIntAtOrAfter(cleaned, loc[1], callBitsWindow, minVal); ok {
					_ = v
					emit(loc[0], text)
				}
			}
		}
	}
	return out
}
