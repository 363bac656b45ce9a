package catalog

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteSeed renders Defaults() into the same document shape ResolvePath/
// Load expect and writes it to path, atomically (temp file + rename, like
// Export). It gives operators a working patterns.json to start editing
// instead of writing one from scratch against spec.md §4.1's schema.
func WriteSeed(path string) error {
	cat := Defaults()
	jf := jsonFile{}

	for _, r := range cat.Regexes {
		pat := ""
		if r.Compiled != nil {
			pat = r.Compiled.String()
		}
		icase := false
		if len(pat) >= 4 && pat[:4] == "(?i)" {
			icase = true
			pat = pat[4:]
		}
		jf.Regex = append(jf.Regex, jsonRegex{
			Name: r.Name, Algo: r.Algo, Pattern: pat, Severity: r.Severity, Evidence: r.Evidence, ICase: &icase,
		})
	}
	for _, b := range cat.Bytes {
		jf.Bytes = append(jf.Bytes, jsonBytes{
			Name: b.Name, Algo: b.Algo, Kind: string(b.Kind), Hex: hex.EncodeToString(b.Needle),
			Severity: b.Severity, Evidence: b.Evidence,
		})
	}
	for _, o := range cat.Oids {
		var emit []string
		if len(o.Der) > 0 {
			emit = append(emit, "DER")
		}
		if len(o.Val) > 0 {
			emit = append(emit, "VAL")
		}
		jf.Oids = append(jf.Oids, jsonOid{
			Name: o.Name, Algo: o.Algo, Dotted: o.Dotted, Severity: o.Severity, Evidence: o.Evidence, Emit: emit,
		})
	}
	for _, a := range cat.Ast {
		entry := jsonAst{
			Name: a.Name, Algo: a.Algo, Lang: string(a.Lang), Kind: string(a.Kind),
			Severity: a.Severity, Evidence: a.Evidence, Fullname: a.Fullname, Callees: a.Callees,
			ArgIndex: a.ArgIndex, KwName: a.KwName, MinIntValue: a.MinIntValue,
		}
		if a.ArgRegex != nil {
			entry.ArgRegex = a.ArgRegex.String()
		}
		if a.KwValRegex != nil {
			entry.KwValRegex = a.KwValRegex.String()
		}
		jf.Ast = append(jf.Ast, entry)
	}

	clean := filepath.Clean(path)
	dir := filepath.Dir(clean)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("catalog seed: destination directory invalid: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "patterns-*.tmp")
	if err != nil {
		return fmt.Errorf("catalog seed: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(SecureFilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog seed: chmod temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jf); err != nil {
		tmp.Close()
		return fmt.Errorf("catalog seed: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog seed: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), clean); err != nil {
		return fmt.Errorf("catalog seed: rename into place: %w", err)
	}
	return nil
}
