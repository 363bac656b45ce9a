package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseHexTolerant(t *testing.T) {
	cases := map[string][]byte{
		"0x1a2b":     {0x1a, 0x2b},
		"1a:2b:3c":   {0x1a, 0x2b, 0x3c},
		"1a-2b, 3c":  {0x1a, 0x2b, 0x3c},
		"1A2B":       {0x1a, 0x2b},
	}
	for in, want := range cases {
		got, err := parseHex(in)
		if err != nil {
			t.Fatalf("parseHex(%q): %v", in, err)
		}
		if len(got) != len(want) {
			t.Fatalf("parseHex(%q) = % x, want % x", in, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("parseHex(%q) = % x, want % x", in, got, want)
			}
		}
	}
}

func TestParseHexOddLength(t *testing.T) {
	if _, err := parseHex("abc"); err == nil {
		t.Fatal("expected error for odd-length hex")
	}
}

func TestLoadReadsPatternsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.json")
	doc := `{
		"regex": [{"name": "rsa-generic", "algo": "RSA", "pattern": "CUSTOM_RSA", "severity": "high", "evidence": "string"}],
		"oids": [{"name": "custom-oid", "algo": "CUSTOM", "oid": "1.2.3", "severity": "low", "evidence": "oid"}]
	}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPatternsPath, path)

	cat, gotPath, err := Load(slog.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotPath != path {
		t.Fatalf("gotPath = %q, want %q", gotPath, path)
	}

	foundRegex := false
	for _, r := range cat.Regexes {
		if r.Name == "rsa-generic" {
			foundRegex = true
			if r.Compiled.String() != "(?i)CUSTOM_RSA" {
				t.Fatalf("regex not applied: %q", r.Compiled.String())
			}
		}
	}
	if !foundRegex {
		t.Fatal("expected loaded rsa-generic entry")
	}

	foundCustomOid := false
	for _, o := range cat.Oids {
		if o.Name == "custom-oid" {
			foundCustomOid = true
		}
	}
	if !foundCustomOid {
		t.Fatal("expected custom oid to be loaded")
	}
}

func TestLoadMalformedEntryDropped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.json")
	doc := `{
		"regex": [{"name": "bad", "pattern": "(unclosed"}],
		"oids": [{"name": "good-oid", "algo": "RSA", "oid": "1.2.840.113549.1.1.1", "severity": "high", "evidence": "oid"}]
	}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPatternsPath, path)

	cat, _, err := Load(slog.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, r := range cat.Regexes {
		if r.Name == "bad" {
			t.Fatal("malformed regex should have been dropped, not loaded")
		}
	}
	// A malformed entry drops just itself; the rest of the document still loads.
	if len(cat.Oids) != 1 || cat.Oids[0].Name != "good-oid" {
		t.Fatalf("expected the well-formed oid entry to survive, got %+v", cat.Oids)
	}
}

func TestLoadNoPatternsFileReturnsEmptyAndError(t *testing.T) {
	t.Setenv(EnvPatternsPath, "")
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(dir)

	cat, path, err := Load(slog.Default())
	if err == nil {
		t.Fatal("expected a non-nil error when no patterns file is found")
	}
	if path != "" {
		t.Fatalf("path = %q, want empty", path)
	}
	if len(cat.Regexes) != 0 || len(cat.Bytes) != 0 || len(cat.Oids) != 0 || len(cat.Ast) != 0 {
		t.Fatalf("expected a genuinely empty catalog, got %+v", cat)
	}
}

func TestResolvePathMissingReturnsEmpty(t *testing.T) {
	t.Setenv(EnvPatternsPath, "")
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(dir)
	if got := ResolvePath(); got != "" {
		t.Fatalf("ResolvePath() = %q, want empty", got)
	}
}
