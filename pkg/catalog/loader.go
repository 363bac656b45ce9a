package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// EnvPatternsPath is the environment variable that, when set, names the
// single authoritative patterns file and skips the default search list.
const EnvPatternsPath = "CRYPTO_SCANNER_PATTERNS"

// defaultCandidatePaths is tried in order when EnvPatternsPath is unset.
var defaultCandidatePaths = []string{
	"patterns.json",
	"config/patterns.json",
}

type jsonFile struct {
	Regex []jsonRegex `json:"regex"`
	Bytes []jsonBytes `json:"bytes"`
	Oids  []jsonOid   `json:"oids"`
	Ast   []jsonAst   `json:"ast"`
}

type jsonRegex struct {
	Name     string `json:"name"`
	Algo     string `json:"algo"`
	Pattern  string `json:"pattern"`
	Severity string `json:"severity"`
	Evidence string `json:"evidence"`
	ICase    *bool  `json:"icase"`
}

type jsonBytes struct {
	Name     string `json:"name"`
	Algo     string `json:"algo"`
	Kind     string `json:"kind"`
	Hex      string `json:"hex"`
	Severity string `json:"severity"`
	Evidence string `json:"evidence"`
}

type jsonOid struct {
	Name     string   `json:"name"`
	Algo     string   `json:"algo"`
	Dotted   string   `json:"oid"`
	Severity string   `json:"severity"`
	Evidence string   `json:"evidence"`
	Emit     []string `json:"emit"` // subset of {"DER","VAL"}; defaults to both
}

type jsonAst struct {
	Name        string `json:"name"`
	Algo        string `json:"algo"`
	Lang        string `json:"lang"`
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Evidence    string `json:"evidence"`
	Fullname    string `json:"fullname"`
	Callees     []string `json:"callees"`
	ArgRegex    string `json:"arg_regex"`
	ArgIndex    int    `json:"arg_index"`
	KwName      string `json:"kw_name"`
	KwValRegex  string `json:"kw_value_regex"`
	MinIntValue int    `json:"min_int_value"`
}

// ResolvePath returns the patterns file to load: EnvPatternsPath if set,
// otherwise the first of defaultCandidatePaths that exists on disk. It
// returns "" if no file is found.
func ResolvePath() string {
	if p := os.Getenv(EnvPatternsPath); p != "" {
		return p
	}
	for _, p := range defaultCandidatePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load resolves and parses the pattern catalog, returning the compiled
// catalog, the path it was loaded from, and an error. There is no
// built-in fallback catalog: if no patterns file is found anywhere
// (EnvPatternsPath, then defaultCandidatePaths in order), or the one
// found can't be read or parsed, Load returns an empty catalog and a
// non-nil error describing why. The caller is expected to still run the
// scan — an empty catalog just means it will find nothing — never to
// treat this error as fatal. Malformed individual entries within an
// otherwise-valid file are dropped with a warning rather than aborting
// the whole load (see parseJSON).
func Load(logger *slog.Logger) (*Catalog, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path := ResolvePath()
	if path == "" {
		err := fmt.Errorf("pattern JSON not found: tried $%s, %s",
			EnvPatternsPath, strings.Join(defaultCandidatePaths, ", "))
		logger.Warn("catalog: no patterns file found, scanning with an empty catalog", "error", err)
		return &Catalog{}, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read patterns file %s: %w", path, err)
		logger.Warn("catalog: could not read patterns file, scanning with an empty catalog", "path", path, "error", err)
		return &Catalog{}, "", err
	}
	cat, err := parseJSON(data, logger)
	if err != nil {
		err = fmt.Errorf("parse patterns file %s: %w", path, err)
		logger.Warn("catalog: could not parse patterns file, scanning with an empty catalog", "path", path, "error", err)
		return &Catalog{}, "", err
	}
	return cat, path, nil
}

// parseJSON compiles a raw patterns.json document into catalog entries,
// dropping (with a warning) any entry that fails to compile instead of
// failing the whole document.
func parseJSON(data []byte, logger *slog.Logger) (*Catalog, error) {
	var jf jsonFile
	if err := json.Unmarshal(data, &jf); err != nil {
		return nil, fmt.Errorf("decode patterns json: %w", err)
	}
	cat := &Catalog{}

	for _, r := range jf.Regex {
		icase := true
		if r.ICase != nil {
			icase = *r.ICase
		}
		pat := r.Pattern
		if icase {
			pat = "(?i)" + pat
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			logger.Warn("catalog: dropping malformed regex pattern", "name", r.Name, "error", err)
			continue
		}
		cat.Regexes = append(cat.Regexes, RegexPattern{
			Name: r.Name, Algo: r.Algo, Severity: r.Severity, Evidence: r.Evidence, Compiled: re,
		})
	}

	for _, b := range jf.Bytes {
		needle, err := parseHex(b.Hex)
		if err != nil {
			logger.Warn("catalog: dropping malformed byte pattern", "name", b.Name, "error", err)
			continue
		}
		cat.Bytes = append(cat.Bytes, BytePattern{
			Name: b.Name, Algo: b.Algo, Severity: b.Severity, Evidence: b.Evidence,
			Kind: BytePatternKind(b.Kind), Needle: needle,
		})
	}

	for _, o := range jf.Oids {
		val, der, err := CompileOid(o.Dotted)
		if err != nil {
			logger.Warn("catalog: dropping malformed oid", "name", o.Name, "error", err)
			continue
		}
		emit := o.Emit
		if len(emit) == 0 {
			emit = []string{"DER", "VAL"}
		}
		entry := OidEntry{Name: o.Name, Algo: o.Algo, Severity: o.Severity, Evidence: o.Evidence, Dotted: o.Dotted}
		for _, e := range emit {
			switch strings.ToUpper(e) {
			case "DER":
				entry.Der = der
			case "VAL":
				entry.Val = val
			}
		}
		cat.Oids = append(cat.Oids, entry)
	}

	for _, a := range jf.Ast {
		rule := AstRule{
			Name: a.Name, Algo: a.Algo, Severity: a.Severity, Evidence: a.Evidence,
			Lang: AstRuleLang(a.Lang), Kind: AstRuleKind(a.Kind), Fullname: a.Fullname,
			Callees: a.Callees, ArgIndex: a.ArgIndex, KwName: a.KwName, MinIntValue: a.MinIntValue,
		}
		if a.ArgRegex != "" {
			re, err := regexp.Compile(a.ArgRegex)
			if err != nil {
				logger.Warn("catalog: dropping ast rule with bad arg_regex", "name", a.Name, "error", err)
				continue
			}
			rule.ArgRegex = re
		}
		if a.KwValRegex != "" {
			re, err := regexp.Compile(a.KwValRegex)
			if err != nil {
				logger.Warn("catalog: dropping ast rule with bad kw_value_regex", "name", a.Name, "error", err)
				continue
			}
			rule.KwValRegex = re
		}
		cat.Ast = append(cat.Ast, rule)
	}

	return cat, nil
}

// parseHex parses a hex byte string tolerant of "0x" prefixes, spaces,
// colons, hyphens, and commas as separators.
func parseHex(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '-', ',', '\t', '\n':
			return -1
		}
		return r
	}, s)
	cleaned = strings.ReplaceAll(cleaned, "0x", "")
	cleaned = strings.ReplaceAll(cleaned, "0X", "")
	if len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", s)
	}
	out := make([]byte, len(cleaned)/2)
	for i := 0; i < len(out); i++ {
		v, err := strconv.ParseUint(cleaned[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte at position %d in %q: %w", i, s, err)
		}
		out[i] = byte(v)
	}
	return out, nil
}
