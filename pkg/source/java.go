package source

import (
	"regexp"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
)

// javaConstDecl matches "final? String NAME = "value";" declarations used
// to resolve a bare identifier argument to its literal value before the
// arg_regex check runs.
var javaConstDecl = regexp.MustCompile(`(?:final\s+)?String\s+(\w+)\s*=\s*"((?:\\.|[^"\\])*)"`)

// ScanJava runs every java-lang AstRule against src, returning one
// Detection per matching call-site.
func ScanJava(filePath string, src []byte, rules []catalog.AstRule) []detection.Detection {
	text := string(src)
	cleaned := StripJava(text)
	consts := gatherJavaConstants(cleaned)

	var out []detection.Detection
	for _, rule := range rules {
		if rule.Lang != catalog.LangJava {
			continue
		}
		out = append(out, evalJavaRule(filePath, cleaned, rule, consts)...)
	}
	return out
}

func gatherJavaConstants(cleaned string) map[string]string {
	consts := map[string]string{}
	for _, m := range javaConstDecl.FindAllStringSubmatch(cleaned, -1) {
		consts[m[1]] = m[2]
	}
	return consts
}

var identRegex = regexp.MustCompile(`^[A-Za-z_]\w*$`)

func evalJavaRule(filePath, cleaned string, rule catalog.AstRule, consts map[string]string) []detection.Detection {
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
		re := calleeRegexDotted(rule.Fullname)
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			emit(loc[0], rule.Fullname)
		}
	case catalog.KindCallFullnameArg:
		re := calleeRegexDotted(rule.Fullname)
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			arg := extractFirstArg(cleaned, loc[1])
			if !arg.present {
				continue
			}
			val := resolveJavaArg(arg, consts)
			if rule.ArgRegex != nil && rule.ArgRegex.MatchString(val) {
				emit(loc[0], rule.Fullname+"("+val+")")
			}
		}
	case catalog.KindCtorCall:
		re := ctorRegexDotted(rule.Fullname)
		for _, loc := range re.FindAllStringIndex(cleaned, -1) {
			if rule.ArgRegex == nil {
				emit(loc[0], "new "+rule.Fullname)
				continue
			}
			arg := extractFirstArg(cleaned, loc[1])
			if arg.present {
				val := resolveJavaArg(arg, consts)
				if rule.ArgRegex.MatchString(val) {
					emit(loc[0], "new "+rule.Fullname+"("+val+")")
				}
			}
		}
	}
	return out
}

// resolveJavaArg substitutes a bare identifier argument with its
// constant-folded literal value, if one was declared earlier in the file.
func resolveJavaArg(arg callArg, consts map[string]string) string {
	if arg.isInt {
		return arg.text
	}
	if identRegex.MatchString(arg.text) {
		if v, ok := consts[arg.text]; ok {
			return v
		}
	}
	return arg.text
}
