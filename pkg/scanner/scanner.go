// Package scanner is the traversal driver: it walks a target path,
// routes each file to the right sub-scanner, and folds every hit
// through the shared severity classifier and dedup table into a flat
// Detection list.
package scanner

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ashlarsec/cryptolens/pkg/archive"
	"github.com/ashlarsec/cryptolens/pkg/bytecode"
	"github.com/ashlarsec/cryptolens/pkg/cache"
	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/certkey"
	"github.com/ashlarsec/cryptolens/pkg/detection"
	"github.com/ashlarsec/cryptolens/pkg/router"
	"github.com/ashlarsec/cryptolens/pkg/search"
	"github.com/ashlarsec/cryptolens/pkg/source"
)

// Scanner wires a compiled Catalog into the per-file dispatch logic
// shared by both the batch and streaming traversal modes.
type Scanner struct {
	cat   *catalog.Catalog
	fs    FileSystem
	log   *slog.Logger
	cache *cache.Cache // optional; nil disables incremental-scan caching

	bytePatterns []catalog.BytePattern // cat.Bytes plus every compiled OID, precomputed once
}

// WithCache attaches an incremental-scan cache: files whose size/mtime
// match a prior manifest and whose content hash is already known skip
// re-scanning entirely. Returns s for chaining.
func (s *Scanner) WithCache(c *cache.Cache) *Scanner {
	s.cache = c
	return s
}

// New builds a Scanner over a compiled catalog. A nil FileSystem uses
// RealFileSystem; a nil logger discards its output.
func New(cat *catalog.Catalog, fsys FileSystem, log *slog.Logger) *Scanner {
	if fsys == nil {
		fsys = RealFileSystem{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bp := append([]catalog.BytePattern{}, cat.Bytes...)
	bp = append(bp, catalog.OidsAsBytePatterns(cat.Oids)...)
	return &Scanner{cat: cat, fs: fsys, log: log, bytePatterns: bp}
}

// ScanFile dispatches a single already-identified file (or archive
// entry) through the appropriate sub-scanner and returns its raw,
// not-yet-deduplicated detections. path is the canonical path used for
// reporting; for archive members this is the "<archive>::<entry>" form.
// forceBinary overrides routing to KindBinary regardless of extension —
// used to stop nested archives from being walked recursively. deepJar
// widens the threshold up to which an archive is walked entry-by-entry
// rather than scanned as one opaque binary; it never enables recursion
// into nested archives.
func (s *Scanner) ScanFile(path string, data []byte, forceBinary, deepJar bool) []detection.Detection {
	kind := router.KindBinary
	if !forceBinary {
		kind = router.Route(path, data)
	}

	switch kind {
	case router.KindArchive:
		return s.scanArchive(path, data, deepJar)
	case router.KindClass:
		var out []detection.Detection
		out = append(out, bytecode.Scan(path, data, s.cat.Regexes, s.methodCallRules())...)
		out = append(out, s.scanBinary(path, data)...)
		return out
	case router.KindJava:
		return s.astScan(path, data, catalog.LangJava)
	case router.KindPython:
		return s.astScan(path, data, catalog.LangPy)
	case router.KindCpp:
		return s.astScan(path, data, catalog.LangCpp)
	case router.KindCertKey:
		return certkey.Scan(path, data, s.cat.Regexes, s.bytePatterns)
	default:
		return s.scanBinary(path, data)
	}
}

// scanTopLevel is the entry point for a freshly-read top-level file
// (never an archive-internal entry, so forceBinary is always false).
func (s *Scanner) scanTopLevel(path string, data []byte, deepJar bool) []detection.Detection {
	return s.ScanFile(path, data, false, deepJar)
}

func (s *Scanner) astScan(path string, data []byte, lang catalog.AstRuleLang) []detection.Detection {
	rules := s.rulesForLang(lang)
	switch lang {
	case catalog.LangJava:
		return source.ScanJava(path, data, rules)
	case catalog.LangPy:
		return source.ScanPython(path, data, rules)
	default:
		return source.ScanCpp(path, data, rules)
	}
}

func (s *Scanner) rulesForLang(lang catalog.AstRuleLang) []catalog.AstRule {
	var out []catalog.AstRule
	for _, r := range s.cat.Ast {
		if r.Lang == lang {
			out = append(out, r)
		}
	}
	return out
}

func (s *Scanner) methodCallRules() []catalog.AstRule {
	var out []catalog.AstRule
	for _, r := range s.cat.Ast {
		if r.Kind == catalog.KindMethodCall {
			out = append(out, r)
		}
	}
	return out
}

// scanBinary runs the generic ASCII-string + byte-needle search used
// for any file that doesn't have a dedicated sub-scanner.
func (s *Scanner) scanBinary(path string, data []byte) []detection.Detection {
	var out []detection.Detection

	runs := search.ExtractAsciiRuns(data)
	for _, hit := range search.ScanStrings(runs, s.cat.Regexes) {
		evType, sev := detection.ClassifyText(hit.Algo, hit.Severity, false)
		out = append(out, detection.Detection{
			FilePath: path, Position: hit.Offset, Algorithm: hit.Algo,
			Match: hit.Match, EvidenceType: evType, Severity: sev,
		})
	}
	for _, hit := range search.ScanBytes(data, s.bytePatterns) {
		evType, sev := detection.ClassifyByteKind(hit.Kind)
		out = append(out, detection.Detection{
			FilePath: path, Position: hit.Offset, Algorithm: hit.Algo,
			Match: hit.Match, EvidenceType: evType, Severity: sev,
		})
	}
	return out
}

// scanArchive walks an archive's entries and dispatches each one back
// through ScanFile, forcing anything that would itself route as another
// archive to a plain binary scan instead — nested archives are never
// opened recursively.
func (s *Scanner) scanArchive(path string, data []byte, deepJar bool) []detection.Detection {
	if int64(len(data)) > MaxArchiveBytes {
		s.log.Warn("archive exceeds hard size cap, skipping", "path", path, "size", len(data))
		return nil
	}
	deepThreshold := MaxDeepArchiveBytes
	if deepJar {
		deepThreshold = MaxArchiveBytes
	}
	if int64(len(data)) > deepThreshold {
		s.log.Warn("archive exceeds deep-walk threshold, scanning as opaque binary", "path", path, "size", len(data))
		return s.scanBinary(path, data)
	}

	entries, err := archive.Walk(data)
	if err != nil {
		s.log.Warn("failed to open archive", "path", path, "err", err)
		return nil
	}

	var out []detection.Detection
	for _, e := range entries {
		entryPath := archive.CanonicalPath(path, e.Name)
		forceBinary := router.Route(entryPath, e.Data) == router.KindArchive
		out = append(out, s.ScanFile(entryPath, e.Data, forceBinary, deepJar)...)
	}
	return out
}

// ScanPath walks root and returns every deduplicated detection across
// its files, fanning out across top-level entries with bounded
// parallelism. opts.Recurse controls whether subdirectories are
// descended into; opts.DeepJar raises the threshold up to which an
// archive is walked entry-by-entry (up to MaxArchiveBytes) instead of
// being scanned as one opaque binary past MaxDeepArchiveBytes. It never
// enables recursion into nested archives.
func (s *Scanner) ScanPath(ctx context.Context, root string, opts Options) ([]detection.Detection, int, error) {
	paths, err := s.collectPaths(root, opts.Recurse)
	if err != nil {
		return nil, 0, err
	}

	results := make([][]detection.Detection, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = s.scanOnePath(p, opts.DeepJar)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	dedup := detection.NewDedup()
	for _, ds := range results {
		for _, d := range ds {
			dedup.Add(d)
		}
	}
	return dedup.Detections(), len(paths), nil
}

// ProgressFunc reports incremental traversal progress during a
// streaming scan.
type ProgressFunc func(path string, doneFiles, totalFiles int, doneBytes, totalBytes int64)

// ScanPathStreaming walks root sequentially, invoking onDetect as each
// file's detections are produced and onProgress after each file
// completes. isCancelled is polled between files; once it returns true
// the walk stops and returns nil.
func (s *Scanner) ScanPathStreaming(root string, opts Options, onDetect func(detection.Detection), onProgress ProgressFunc, isCancelled func() bool) error {
	paths, err := s.collectPaths(root, opts.Recurse)
	if err != nil {
		return err
	}

	var totalBytes int64
	sizes := make([]int64, len(paths))
	for i, p := range paths {
		if info, err := s.fs.Stat(p); err == nil {
			sizes[i] = info.Size()
			totalBytes += info.Size()
		}
	}

	dedup := detection.NewDedup()
	var doneBytes int64
	for i, p := range paths {
		if isCancelled != nil && isCancelled() {
			return nil
		}
		for _, d := range s.scanOnePath(p, opts.DeepJar) {
			if dedup.Add(d) && onDetect != nil {
				onDetect(d)
			}
		}
		doneBytes += sizes[i]
		if onProgress != nil {
			onProgress(p, i+1, len(paths), doneBytes, totalBytes)
		}
	}
	return nil
}

// scanOnePath reads and dispatches a single filesystem path, applying
// its size gate up front and consulting the incremental cache (if
// attached) both before and after the scan.
func (s *Scanner) scanOnePath(p string, deepJar bool) []detection.Detection {
	kind := router.Route(p, nil)
	limit := gateFor(kind)

	var info os.FileInfo
	if s.cache != nil {
		if st, err := s.fs.Stat(p); err == nil {
			info = st
			if m, ok := s.cache.GetManifest(p); ok && m.Unchanged(st.Size(), st.ModTime()) {
				if dets, ok := s.cache.GetDetections(m.ContentHash); ok {
					return dets
				}
			}
		}
	}

	data, err := s.fs.ReadFile(p, limit+1)
	if err != nil {
		s.log.Warn("failed to read file", "path", p, "err", err)
		return nil
	}
	if int64(len(data)) > limit {
		s.log.Warn("file exceeds size gate, skipping", "path", p, "limit", limit)
		return nil
	}

	dets := s.scanTopLevel(p, data, deepJar)

	if s.cache != nil {
		if info == nil {
			info, err = s.fs.Stat(p)
		}
		if info != nil && err == nil {
			hash := cache.HashContent(data)
			m := cache.Manifest{Path: p, Size: info.Size(), ModTime: info.ModTime(), ContentHash: hash}
			if err := s.cache.Put(m, dets); err != nil {
				s.log.Warn("failed to update scan cache", "path", p, "err", err)
			}
		}
	}

	return dets
}

// collectPaths walks root and returns every regular file path under it,
// honoring recurse and the deny-listed pseudo-filesystem roots.
func (s *Scanner) collectPaths(root string, recurse bool) ([]string, error) {
	var out []string
	err := s.fs.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip it, keep walking
		}
		if isDenied(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recurse && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}
