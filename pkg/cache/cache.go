// Package cache implements an optional, pebble-backed incremental-scan
// cache: detections keyed by a file's content hash, so re-scanning an
// unchanged tree can skip every file whose hash is already known.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/ashlarsec/cryptolens/pkg/detection"
)

// HashContent returns the hex-encoded SHA-256 digest of data, the key
// under which its detections are cached.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key prefixes partition the flat Pebble keyspace, one prefix per
// record kind.
var (
	prefixManifest   = []byte("manifest:")   // manifest:<path> -> gob(Manifest)
	prefixDetections = []byte("detections:") // detections:<contentHash> -> gob([]Detection)
	prefixMeta       = []byte("meta:")
)

// CurrentSchemaVersion guards against an older binary reading a cache
// written by a newer, incompatible one.
const CurrentSchemaVersion = 1

// Manifest records the filesystem state a cache entry was computed
// against, so a caller can decide whether a file needs re-hashing
// before trusting its cached detections.
type Manifest struct {
	Path        string
	Size        int64
	ModTime     time.Time
	ContentHash string
}

// Cache wraps a Pebble database with the narrow get/put API the
// scanner's incremental mode needs.
type Cache struct {
	db *pebble.DB
	mu sync.RWMutex
}

// Open opens or creates a cache database at dbPath, refusing to
// initialize inside a handful of sensitive system directories.
func Open(dbPath string) (*Cache, error) {
	absPath, err := filepath.EvalSymlinks(dbPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cache: resolve path %q: %w", dbPath, err)
		}
		absPath, _ = filepath.Abs(dbPath)
	}
	if runtime.GOOS == "linux" {
		for _, sp := range []string{"/etc", "/root", "/usr", "/bin", "/sbin", "/boot"} {
			if strings.HasPrefix(absPath, sp) {
				return nil, fmt.Errorf("cache: refusing to initialize inside system directory %q", absPath)
			}
		}
	}

	var db *pebble.DB
	for attempt := 0; attempt < 5; attempt++ {
		db, err = pebble.Open(dbPath, &pebble.Options{})
		if err == nil {
			break
		}
		if strings.Contains(err.Error(), "lock") {
			time.Sleep(100 * time.Millisecond * time.Duration(1<<attempt))
			continue
		}
		return nil, fmt.Errorf("cache: open %q: %w", dbPath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("cache: acquire lock on %q after retries: %w", dbPath, err)
	}

	c := &Cache{db: db}
	if v, err := c.getMeta("schema_version"); err == nil && v != "" {
		var dbVer int
		if _, scanErr := fmt.Sscanf(v, "%d", &dbVer); scanErr == nil && dbVer > CurrentSchemaVersion {
			db.Close()
			return nil, fmt.Errorf("cache: schema version %d newer than supported %d", dbVer, CurrentSchemaVersion)
		}
	} else {
		_ = c.setMeta("schema_version", fmt.Sprintf("%d", CurrentSchemaVersion))
	}
	return c, nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// GetManifest returns the last-recorded manifest for path, if any.
func (c *Cache) GetManifest(path string) (Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, closer, err := c.db.Get(append(append([]byte(nil), prefixManifest...), []byte(path)...))
	if err != nil {
		return Manifest{}, false
	}
	defer closer.Close()

	var m Manifest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return Manifest{}, false
	}
	return m, true
}

// Unchanged reports whether path's on-disk size and mtime still match
// its last-recorded manifest — a cheap check to skip content hashing
// entirely for files that plainly haven't moved.
func (m Manifest) Unchanged(size int64, modTime time.Time) bool {
	return m.Size == size && m.ModTime.Equal(modTime)
}

// GetDetections returns the cached detections for a content hash.
func (c *Cache) GetDetections(contentHash string) ([]detection.Detection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, closer, err := c.db.Get(append(append([]byte(nil), prefixDetections...), []byte(contentHash)...))
	if err != nil {
		return nil, false
	}
	defer closer.Close()

	var dets []detection.Detection
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&dets); err != nil {
		return nil, false
	}
	return dets, true
}

// Put records a file's manifest and its scan result, keyed by content
// hash so identical content scanned under different paths shares one
// cache entry.
func (c *Cache) Put(m Manifest, dets []detection.Detection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var mBuf bytes.Buffer
	if err := gob.NewEncoder(&mBuf).Encode(m); err != nil {
		return fmt.Errorf("cache: encode manifest for %q: %w", m.Path, err)
	}
	var dBuf bytes.Buffer
	if err := gob.NewEncoder(&dBuf).Encode(dets); err != nil {
		return fmt.Errorf("cache: encode detections for %q: %w", m.Path, err)
	}

	batch := c.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(append(append([]byte(nil), prefixManifest...), []byte(m.Path)...), mBuf.Bytes(), nil); err != nil {
		return err
	}
	if err := batch.Set(append(append([]byte(nil), prefixDetections...), []byte(m.ContentHash)...), dBuf.Bytes(), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Stats reports how many manifests and cached detection sets a cache
// currently holds.
type Stats struct {
	Manifests  int
	Detections int
}

// Stats scans the manifest and detections key ranges and counts entries.
func (c *Cache) Stats() (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var s Stats
	if n, err := c.countPrefix(prefixManifest); err != nil {
		return s, err
	} else {
		s.Manifests = n
	}
	if n, err := c.countPrefix(prefixDetections); err != nil {
		return s, err
	} else {
		s.Detections = n
	}
	return s, nil
}

func (c *Cache) countPrefix(prefix []byte) (int, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

// prefixUpperBound returns the smallest key strictly greater than every
// key sharing prefix, i.e. the exclusive upper bound of its keyspace.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte(nil), prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] != 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil // prefix is all 0xff bytes: no upper bound
}

// Clear removes every manifest and cached detection entry, leaving
// schema metadata intact.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, prefix := range [][]byte{prefixManifest, prefixDetections} {
		if err := c.db.DeleteRange(prefix, prefixUpperBound(prefix), pebble.Sync); err != nil {
			return fmt.Errorf("cache: clear range: %w", err)
		}
	}
	return nil
}

func (c *Cache) getMeta(key string) (string, error) {
	data, closer, err := c.db.Get(append(append([]byte(nil), prefixMeta...), []byte(key)...))
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(data), nil
}

func (c *Cache) setMeta(key, value string) error {
	return c.db.Set(append(append([]byte(nil), prefixMeta...), []byte(key)...), []byte(value), pebble.Sync)
}
