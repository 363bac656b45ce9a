package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ashlarsec/cryptolens/pkg/detection"
)

func TestPutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	hash := HashContent([]byte("using RSA-2048"))
	m := Manifest{Path: "/tmp/a.txt", Size: 14, ModTime: time.Unix(1000, 0), ContentHash: hash}
	dets := []detection.Detection{{FilePath: "/tmp/a.txt", Position: 6, Algorithm: "RSA", Match: "RSA-2048", EvidenceType: "text", Severity: "high"}}

	if err := c.Put(m, dets); err != nil {
		t.Fatalf("Put: %v", err)
	}

	gotM, ok := c.GetManifest("/tmp/a.txt")
	if !ok {
		t.Fatalf("expected manifest to be found")
	}
	if !gotM.Unchanged(14, time.Unix(1000, 0)) {
		t.Fatalf("expected manifest to report unchanged for matching size/mtime")
	}
	if gotM.Unchanged(15, time.Unix(1000, 0)) {
		t.Fatalf("expected manifest to report changed for differing size")
	}

	gotDets, ok := c.GetDetections(hash)
	if !ok {
		t.Fatalf("expected detections to be found for hash")
	}
	if len(gotDets) != 1 || gotDets[0].Match != "RSA-2048" {
		t.Fatalf("unexpected detections: %+v", gotDets)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, ok := c.GetManifest("/does/not/exist"); ok {
		t.Fatalf("expected no manifest for unknown path")
	}
	if _, ok := c.GetDetections("deadbeef"); ok {
		t.Fatalf("expected no detections for unknown hash")
	}
}

func TestOpenRefusesSystemDirectories(t *testing.T) {
	if _, err := Open("/etc/cryptolens-cache.db"); err == nil {
		t.Fatalf("expected Open to refuse a system directory")
	}
}

func TestStatsAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	for i, path := range []string{"/tmp/a.txt", "/tmp/b.txt"} {
		hash := HashContent([]byte{byte(i)})
		m := Manifest{Path: path, Size: 1, ModTime: time.Unix(int64(i), 0), ContentHash: hash}
		if err := c.Put(m, []detection.Detection{{FilePath: path, Algorithm: "RSA"}}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Manifests != 2 || stats.Detections != 2 {
		t.Fatalf("expected 2/2, got %+v", stats)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = c.Stats()
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if stats.Manifests != 0 || stats.Detections != 0 {
		t.Fatalf("expected empty cache after clear, got %+v", stats)
	}
}
