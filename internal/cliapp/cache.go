package cliapp

import (
	"fmt"
	"io"

	"github.com/ashlarsec/cryptolens/pkg/cache"
)

// RunCacheStats opens the cache at path and prints its entry counts.
func RunCacheStats(path string, out io.Writer) error {
	c, err := cache.Open(path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer c.Close()

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}
	fmt.Fprintf(out, "cache:      %s\n", path)
	fmt.Fprintf(out, "manifests:  %d\n", stats.Manifests)
	fmt.Fprintf(out, "detections: %d\n", stats.Detections)
	return nil
}

// RunCacheClear opens the cache at path and removes every cached entry.
func RunCacheClear(path string, out io.Writer) error {
	c, err := cache.Open(path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer c.Close()

	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(out, "cleared %s\n", path)
	return nil
}
