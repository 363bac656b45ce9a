package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates an isolated temp directory for tests that need a
// real filesystem (RealFileSystem walks, CLI integration tests). Returns
// the directory path and a cleanup function.
func SetupTestEnv(t *testing.T, prefix string) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return dir, func() { os.RemoveAll(dir) }
}

// WriteTree materializes a map of relative path -> content under dir,
// creating parent directories as needed. Exported for tests that want a
// disk-backed fixture tree rather than the in-memory FileSystem fake.
func WriteTree(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		full := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, data, 0644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
}
