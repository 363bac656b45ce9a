package cliapp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
)

func TestRunPatternsListReportsCounts(t *testing.T) {
	withSeededPatterns(t)
	var out bytes.Buffer
	if err := RunPatternsList(&out, nil); err != nil {
		t.Fatalf("RunPatternsList: %v", err)
	}
	if !strings.Contains(out.String(), "regex patterns:") {
		t.Fatalf("expected regex pattern count line, got %q", out.String())
	}
}

func TestRunPatternsListReportsMissingCatalog(t *testing.T) {
	t.Setenv(catalog.EnvPatternsPath, "")
	wd, _ := os.Getwd()
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	var out bytes.Buffer
	if err := RunPatternsList(&out, nil); err != nil {
		t.Fatalf("RunPatternsList: %v", err)
	}
	if !strings.Contains(out.String(), "source:          none") {
		t.Fatalf("expected a 'source: none' line describing the missing catalog, got %q", out.String())
	}
}

func TestRunPatternsExportWritesFile(t *testing.T) {
	withSeededPatterns(t)
	dest := filepath.Join(t.TempDir(), "snapshot.json")
	if err := RunPatternsExport(dest, nil); err != nil {
		t.Fatalf("RunPatternsExport: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read exported snapshot: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty snapshot")
	}
}

func TestRunPatternsInitProducesLoadableCatalog(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "patterns.json")
	if err := RunPatternsInit(dest); err != nil {
		t.Fatalf("RunPatternsInit: %v", err)
	}
	t.Setenv(catalog.EnvPatternsPath, dest)

	cat, path, err := catalog.Load(nil)
	if err != nil {
		t.Fatalf("Load of seeded catalog: %v", err)
	}
	if path != dest {
		t.Fatalf("path = %q, want %q", path, dest)
	}
	if len(cat.Regexes) == 0 || len(cat.Oids) == 0 {
		t.Fatalf("expected seeded catalog to round-trip non-empty entries, got %+v", cat)
	}
}
