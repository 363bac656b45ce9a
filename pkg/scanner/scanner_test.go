package scanner

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/ashlarsec/cryptolens/pkg/cache"
	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
	"github.com/ashlarsec/cryptolens/pkg/testutil"
)

// fakeFile is a minimal in-memory file for fakeFS.
type fakeFile struct {
	data []byte
	dir  bool
}

// fakeFS is a tiny in-memory FileSystem used to test traversal without
// touching disk.
type fakeFS struct {
	files map[string]fakeFile
	order []string
}

func newFakeFS() *fakeFS { return &fakeFS{files: map[string]fakeFile{}} }

func (f *fakeFS) put(path string, data []byte) {
	if _, ok := f.files[path]; !ok {
		f.order = append(f.order, path)
	}
	f.files[path] = fakeFile{data: data}
}

func (f *fakeFS) mkdir(path string) {
	if _, ok := f.files[path]; !ok {
		f.order = append(f.order, path)
	}
	f.files[path] = fakeFile{dir: true}
}

type fakeInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) Mode() fs.FileMode  { return 0 }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.isDir }
func (i fakeInfo) Sys() any           { return nil }

type fakeDirEntry struct{ info fakeInfo }

func (d fakeDirEntry) Name() string               { return d.info.name }
func (d fakeDirEntry) IsDir() bool                { return d.info.isDir }
func (d fakeDirEntry) Type() fs.FileMode          { return d.info.Mode() }
func (d fakeDirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

func pathUnder(path, root string) bool {
	if root == "/" {
		return len(path) > 1 && path[0] == '/'
	}
	if path == root {
		return true
	}
	return len(path) > len(root) && path[:len(root)] == root && path[len(root)] == '/'
}

func (f *fakeFS) Stat(path string) (os.FileInfo, error) {
	ff, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeInfo{name: path, size: int64(len(ff.data)), isDir: ff.dir}, nil
}

func (f *fakeFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	if err := fn(root, fakeDirEntry{fakeInfo{name: root, isDir: true}}, nil); err != nil && err != fs.SkipDir {
		return err
	}
	var skipPrefix string
	for _, p := range f.order {
		if !pathUnder(p, root) {
			continue
		}
		if skipPrefix != "" && (p == skipPrefix || pathUnder(p, skipPrefix)) {
			continue
		}
		skipPrefix = ""
		ff := f.files[p]
		err := fn(p, fakeDirEntry{fakeInfo{name: p, size: int64(len(ff.data)), isDir: ff.dir}}, nil)
		if err != nil {
			if err == fs.SkipDir {
				if ff.dir {
					skipPrefix = p
				}
				continue
			}
			return err
		}
	}
	return nil
}

func (f *fakeFS) ReadFile(path string, limit int64) ([]byte, error) {
	ff, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	data := ff.data
	if int64(len(data)) > limit {
		data = data[:limit]
	}
	return data, nil
}

func TestScanPathFindsAsciiRsaHit_S1(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/root/notes.txt", []byte("using RSA-2048 for key exchange"))

	s := New(catalog.Defaults(), fsys, nil)
	dets, files, err := s.ScanPath(context.Background(), "/root", Options{Recurse: false})
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if files != 1 {
		t.Fatalf("expected 1 file scanned, got %d", files)
	}
	found := false
	for _, d := range dets {
		if d.Algorithm == "RSA" && d.Match == "RSA-2048" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RSA-2048 detection, got %+v", dets)
	}
}

func TestScanPathSkipsDeniedRoots(t *testing.T) {
	fsys := newFakeFS()
	fsys.mkdir("/proc")
	fsys.put("/proc/cpuinfo", []byte("RSA"))
	fsys.put("/root/a.txt", []byte("RSA-2048"))
	fsys.mkdir("/root")

	s := New(catalog.Defaults(), fsys, nil)
	_, files, err := s.ScanPath(context.Background(), "/", Options{Recurse: true})
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	for _, p := range []string{"/proc/cpuinfo"} {
		if _, ok := fsys.files[p]; !ok {
			t.Fatalf("test setup broken, missing %s", p)
		}
	}
	if files != 1 {
		t.Fatalf("expected only /root/a.txt to be scanned, got %d files", files)
	}
}

func TestScanPathStreamingReportsProgress(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/root/a.txt", []byte("RSA-2048"))
	fsys.put("/root/b.txt", []byte("nothing interesting"))

	s := New(catalog.Defaults(), fsys, nil)
	var detected int
	var lastDone, lastTotal int
	err := s.ScanPathStreaming("/root", Options{Recurse: false},
		func(d detection.Detection) { detected++ },
		func(path string, doneFiles, totalFiles int, doneBytes, totalBytes int64) {
			lastDone, lastTotal = doneFiles, totalFiles
		},
		nil,
	)
	if err != nil {
		t.Fatalf("ScanPathStreaming: %v", err)
	}
	if detected == 0 {
		t.Fatalf("expected at least one detection")
	}
	if lastDone != lastTotal || lastTotal != 2 {
		t.Fatalf("expected progress to finish at 2/2, got %d/%d", lastDone, lastTotal)
	}
}

func TestNonRecursiveSkipsSubdirectories(t *testing.T) {
	fsys := newFakeFS()
	fsys.mkdir("/root/sub")
	fsys.put("/root/sub/deep.txt", []byte("RSA-2048"))
	fsys.put("/root/top.txt", []byte("RSA-2048"))

	s := New(catalog.Defaults(), fsys, nil)
	_, files, err := s.ScanPath(context.Background(), "/root", Options{Recurse: false})
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if files != 1 {
		t.Fatalf("expected only top-level file, got %d", files)
	}
}

func TestScanPathStreamingCancelStopsEarly(t *testing.T) {
	fsys := newFakeFS()
	fsys.put("/root/a.txt", []byte("RSA-2048"))
	fsys.put("/root/b.txt", []byte("RSA-2048"))
	fsys.put("/root/c.txt", []byte("RSA-2048"))

	s := New(catalog.Defaults(), fsys, nil)
	var detected int
	var progressCalls int
	checks := 0
	isCancelled := func() bool {
		checks++
		return checks > 1
	}
	err := s.ScanPathStreaming("/root", Options{Recurse: false},
		func(d detection.Detection) { detected++ },
		func(path string, doneFiles, totalFiles int, doneBytes, totalBytes int64) { progressCalls++ },
		isCancelled,
	)
	if err != nil {
		t.Fatalf("ScanPathStreaming: %v", err)
	}
	if progressCalls == 0 {
		t.Fatalf("expected at least one file scanned before cancellation")
	}
	if progressCalls >= 3 {
		t.Fatalf("expected cancellation to stop the walk before all 3 files, got %d", progressCalls)
	}
	if detected == 0 {
		t.Fatalf("expected partial detections from the file scanned before cancellation")
	}
}

func TestCacheHitSkipsRescan(t *testing.T) {
	dir, cleanup := testutil.SetupTestEnv(t, "scanner-cache")
	defer cleanup()
	c, err := cache.Open(dir + "/scancache.db")
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()

	fsys := newFakeFS()
	fsys.put("/root/a.txt", []byte("RSA-2048"))

	s := New(catalog.Defaults(), fsys, nil).WithCache(c)
	dets1, _, err := s.ScanPath(context.Background(), "/root", Options{})
	if err != nil {
		t.Fatalf("ScanPath: %v", err)
	}
	if len(dets1) == 0 {
		t.Fatalf("expected detections on first scan")
	}

	if _, ok := c.GetManifest("/root/a.txt"); !ok {
		t.Fatalf("expected manifest to be recorded after first scan")
	}

	dets2, _, err := s.ScanPath(context.Background(), "/root", Options{})
	if err != nil {
		t.Fatalf("ScanPath (second): %v", err)
	}
	if len(dets2) != len(dets1) {
		t.Fatalf("expected identical detections from cache, got %d vs %d", len(dets2), len(dets1))
	}
}
