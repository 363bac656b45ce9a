package cliapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/model"
	"github.com/ashlarsec/cryptolens/pkg/scanner"
	"github.com/ashlarsec/cryptolens/pkg/testutil"
)

// withSeededPatterns points CRYPTO_SCANNER_PATTERNS at a starter catalog
// for the duration of t, since catalog.Load no longer falls back to a
// built-in default when no patterns file is found.
func withSeededPatterns(t *testing.T) {
	t.Helper()
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-patterns")
	t.Cleanup(cleanup)
	path := filepath.Join(dir, "patterns.json")
	if err := catalog.WriteSeed(path); err != nil {
		t.Fatalf("WriteSeed: %v", err)
	}
	t.Setenv(catalog.EnvPatternsPath, path)
}

func TestRunScanJSONOutput(t *testing.T) {
	withSeededPatterns(t)
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-scan")
	defer cleanup()
	testutil.WriteTree(t, dir, map[string][]byte{
		"notes.txt": []byte("using RSA-2048 for key exchange"),
	})

	var out bytes.Buffer
	cfg := ScanConfig{Target: dir, ScanOptions: model.ScanOptions{Options: scanner.Options{Recurse: true}}, Format: "json"}
	if err := RunScan(context.Background(), cfg, &out, nil, nil); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	var output model.ScanOutput
	if err := json.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatalf("decode output: %v (body: %s)", err, out.String())
	}
	if output.Summary.TotalHits == 0 {
		t.Fatalf("expected at least one detection, got %+v", output.Summary)
	}
}

func TestRunScanCSVOutput(t *testing.T) {
	withSeededPatterns(t)
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-scan")
	defer cleanup()
	testutil.WriteTree(t, dir, map[string][]byte{
		"notes.txt": []byte("using RSA-2048 for key exchange"),
	})

	var out bytes.Buffer
	cfg := ScanConfig{Target: dir, ScanOptions: model.ScanOptions{Options: scanner.Options{Recurse: true}}, Format: "csv"}
	if err := RunScan(context.Background(), cfg, &out, nil, nil); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected header plus at least one row, got %q", out.String())
	}
	if lines[0] != "file,offset_or_line,pattern,match,evidence,severity" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestRunScanWithCachePersistsAcrossCalls(t *testing.T) {
	withSeededPatterns(t)
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-scan")
	defer cleanup()
	testutil.WriteTree(t, dir, map[string][]byte{
		"notes.txt": []byte("using RSA-2048 for key exchange"),
	})
	cacheDir, cacheCleanup := testutil.SetupTestEnv(t, "cliapp-cache")
	defer cacheCleanup()
	cachePath := filepath.Join(cacheDir, "scan.db")

	cfg := ScanConfig{
		Target:      dir,
		ScanOptions: model.ScanOptions{Options: scanner.Options{Recurse: true}, CachePath: cachePath},
		Format:      "json",
	}

	var out1 bytes.Buffer
	if err := RunScan(context.Background(), cfg, &out1, nil, nil); err != nil {
		t.Fatalf("first RunScan: %v", err)
	}
	var out2 bytes.Buffer
	if err := RunScan(context.Background(), cfg, &out2, nil, nil); err != nil {
		t.Fatalf("second RunScan: %v", err)
	}

	var o1, o2 model.ScanOutput
	if err := json.Unmarshal(out1.Bytes(), &o1); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := json.Unmarshal(out2.Bytes(), &o2); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if o1.Summary.TotalHits != o2.Summary.TotalHits {
		t.Fatalf("expected identical hit counts across cached runs, got %d vs %d", o1.Summary.TotalHits, o2.Summary.TotalHits)
	}
}

func TestRunScanStreamingHonorsCancelledContext(t *testing.T) {
	withSeededPatterns(t)
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-scan-cancel")
	defer cleanup()
	testutil.WriteTree(t, dir, map[string][]byte{
		"a.txt": []byte("using RSA-2048 for key exchange"),
		"b.txt": []byte("using RSA-2048 for key exchange"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before the scan starts

	var out, progress bytes.Buffer
	cfg := ScanConfig{
		Target:      dir,
		ScanOptions: model.ScanOptions{Options: scanner.Options{Recurse: true}, Progress: true},
		Format:      "json",
	}
	err := RunScan(ctx, cfg, &out, &progress, nil)
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a context.Canceled error, got %v", err)
	}
	if progress.Len() != 0 {
		t.Fatalf("expected no files to be scanned once the context was already cancelled, got %q", progress.String())
	}
}

func TestRunScanProgressStreamsPerFileLines(t *testing.T) {
	withSeededPatterns(t)
	dir, cleanup := testutil.SetupTestEnv(t, "cliapp-scan-progress")
	defer cleanup()
	testutil.WriteTree(t, dir, map[string][]byte{
		"a.txt": []byte("using RSA-2048 for key exchange"),
		"b.txt": []byte("nothing interesting"),
	})

	var out, progress bytes.Buffer
	cfg := ScanConfig{
		Target:      dir,
		ScanOptions: model.ScanOptions{Options: scanner.Options{Recurse: true}, Progress: true},
		Format:      "json",
	}
	if err := RunScan(context.Background(), cfg, &out, &progress, nil); err != nil {
		t.Fatalf("RunScan: %v", err)
	}

	if !strings.Contains(progress.String(), "[2/2]") {
		t.Fatalf("expected progress output to reach 2/2, got %q", progress.String())
	}

	var output model.ScanOutput
	if err := json.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatalf("decode output: %v (body: %s)", err, out.String())
	}
	if output.Summary.TotalHits == 0 {
		t.Fatalf("expected at least one detection, got %+v", output.Summary)
	}
}
