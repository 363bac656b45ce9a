package scanner

// Options is the core pipeline's full option set, exactly the two
// fields spec.md's ScanOptions defines. CLI-only concerns (cache path,
// progress display) live one level up on pkg/model.ScanOptions, which
// embeds this type — the core scanner never inspects them.
type Options struct {
	Recurse bool // walk subdirectories; false scans only the root's immediate files
	DeepJar bool // open archives and scan entries individually rather than treating them as opaque binaries
}
