package cliapp

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashlarsec/cryptolens/pkg/cache"
)

func TestRunCacheStatsAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")

	c, err := cache.Open(path)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	if err := c.Put(cache.Manifest{Path: "a.txt", Size: 4, ContentHash: "deadbeef"}, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.Close()

	var stats bytes.Buffer
	if err := RunCacheStats(path, &stats); err != nil {
		t.Fatalf("RunCacheStats: %v", err)
	}
	if !strings.Contains(stats.String(), "manifests:  1") {
		t.Fatalf("expected one manifest reported, got %q", stats.String())
	}

	var clear bytes.Buffer
	if err := RunCacheClear(path, &clear); err != nil {
		t.Fatalf("RunCacheClear: %v", err)
	}

	stats.Reset()
	if err := RunCacheStats(path, &stats); err != nil {
		t.Fatalf("RunCacheStats after clear: %v", err)
	}
	if !strings.Contains(stats.String(), "manifests:  0") {
		t.Fatalf("expected cache to be empty after clear, got %q", stats.String())
	}
}

func TestResolveCachePathPrecedence(t *testing.T) {
	if got := ResolveCachePath("explicit.db"); got != "explicit.db" {
		t.Fatalf("expected explicit flag value to win, got %q", got)
	}
	t.Setenv(EnvCachePath, "/tmp/env.db")
	if got := ResolveCachePath(""); got != "/tmp/env.db" {
		t.Fatalf("expected env var to win over default, got %q", got)
	}
}
