package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// MaxEntryBytes caps how much of a single archive entry is read into
// memory; oversized entries are skipped rather than read whole.
const MaxEntryBytes = 64 * 1024 * 1024

// Entry is one surviving (non-noise, non-metadata) archive member ready
// to be routed back into the pipeline.
type Entry struct {
	Name string // forward-slash entry name, as stored in the archive
	Data []byte
}

// Walk opens a ZIP/JAR archive from raw bytes and returns every entry
// that survives the noise/metadata filter, each read fully into memory.
// It never recurses into nested archive entries; those are returned as
// plain Entry values for the caller to dispatch (pkg/scanner's
// scanArchive forces them to a generic binary scan).
func Walk(data []byte) ([]Entry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("archive: open zip reader: %w", err)
	}

	var out []Entry
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if IsNoise(f.Name) {
			continue
		}
		if int64(f.UncompressedSize64) > MaxEntryBytes {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			// A single corrupt entry doesn't abort the walk.
			continue
		}
		buf, err := io.ReadAll(io.LimitReader(rc, MaxEntryBytes))
		rc.Close()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: f.Name, Data: buf})
	}
	return out, nil
}

// CanonicalPath builds the "<archive>::<entry>" path this scanner uses
// for every detection sourced from inside an archive.
func CanonicalPath(archivePath, entryName string) string {
	return archivePath + "::" + entryName
}
