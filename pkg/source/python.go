package source

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
)

var identOrDotted = regexp.MustCompile(`^[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*$`)

// ScanPython runs every python-lang AstRule against src. Argument
// resolution stays lexical (paren-depth argument splitting, no real
// parser): this scanner never builds an AST, per the syntactic-scanning
// design shared by every language here.
func ScanPython(filePath string, src []byte, rules []catalog.AstRule) []detection.Detection {
	cleaned := StripPython(string(src))

	var out []detection.Detection
	for _, rule := range rules {
		if rule.Lang != catalog.LangPy {
			continue
		}
		out = append(out, evalPythonRule(filePath, cleaned, rule)...)
	}
	return out
}

func evalPythonRule(filePath, cleaned string, rule catalog.AstRule) []detection.Detection {
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

	re := calleeRegexDotted(rule.Fullname)
	locs := re.FindAllStringIndex(cleaned, -1)

	switch rule.Kind {
	case catalog.KindCallFullname:
		for _, loc := range locs {
			emit(loc[0], rule.Fullname)
		}
	case catalog.KindCallFullnameArg:
		for _, loc := range locs {
			args := captureCallArgs(cleaned, loc[1])
			idx := rule.ArgIndex
			if idx >= len(args) {
				continue
			}
			arg := parseAtom(args[idx])
			if arg.present && !arg.isInt && rule.ArgRegex != nil && rule.ArgRegex.MatchString(arg.text) {
				emit(loc[0], rule.Fullname+"("+arg.text+")")
			}
		}
	case catalog.KindCallFullnameIntArg:
		for _, loc := range locs {
			args := captureCallArgs(cleaned, loc[1])
			idx := rule.ArgIndex
			if idx >= len(args) {
				continue
			}
			arg := parseAtom(args[idx])
			if arg.present && arg.isInt {
				emit(loc[0], rule.Fullname+"("+arg.text+")")
			}
		}
	case catalog.KindCallFullnameKwarg:
		for _, loc := range locs {
			args := captureCallArgs(cleaned, loc[1])
			val, ok := findKwarg(args, rule.KwName)
			if !ok {
				continue
			}
			if rule.KwValRegex == nil || rule.KwValRegex.MatchString(val) {
				emit(loc[0], rule.Fullname+"("+rule.KwName+"="+val+")")
			}
		}
	}
	return out
}

// captureCallArgs splits the argument list starting just after a call's
// opening paren (parenEnd points to the byte after "(") into top-level,
// comma-separated argument substrings, respecting nested parens/brackets
// so a nested call's commas don't split the outer argument list.
func captureCallArgs(src string, parenEnd int) []string {
	depth := 0
	start := parenEnd
	var args []string
	i := parenEnd
	for i < len(src) {
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				if strings.TrimSpace(src[start:i]) != "" {
					args = append(args, strings.TrimSpace(src[start:i]))
				}
				return args
			}
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(src[start:i]))
				start = i + 1
			}
		}
		i++
	}
	return args
}

// findKwarg looks for "name=value" among the top-level args and returns
// value's fully-resolved dotted-name or literal text.
func findKwarg(args []string, name string) (string, bool) {
	for _, a := range args {
		eq := strings.Index(a, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(a[:eq])
		if key != name {
			continue
		}
		val := strings.TrimSpace(a[eq+1:])
		return resolvePythonValue(val), true
	}
	return "", false
}

// resolvePythonValue resolves a value expression that is either a
// literal (string/int) or a Name/Attribute chain (e.g. AES.MODE_ECB),
// returning the dotted name unchanged for the latter.
func resolvePythonValue(val string) string {
	atom := parseAtom(val)
	if atom.present {
		return atom.text
	}
	return val
}

func parseAtom(s string) callArg {
	s = strings.TrimSpace(s)
	if s == "" {
		return callArg{}
	}
	if s[0] == '"' || s[0] == '\'' {
		return extractFirstArg(s, 0)
	}
	if _, err := strconv.Atoi(s); err == nil {
		return callArg{text: s, isInt: true, present: true}
	}
	// Dotted Name/Attribute chain, e.g. AES.MODE_ECB.
	if identOrDotted.MatchString(s) {
		return callArg{text: s, present: true}
	}
	return callArg{}
}
