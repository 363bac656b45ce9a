package scanner

import "github.com/ashlarsec/cryptolens/pkg/router"

// Size gates bound how much of any one file the pipeline will read into
// memory before giving up on it. A file over its gate is skipped, not
// truncated-and-scanned, so a partial match near the cutoff never turns
// into a silently wrong offset.
const (
	MaxSourceBytes  int64 = 32 * 1024 * 1024  // .java/.py/.c/.cpp/.h etc
	MaxCertKeyBytes int64 = 8 * 1024 * 1024   // PEM/DER certs and keys
	MaxClassBytes   int64 = 32 * 1024 * 1024  // .class files
	MaxArchiveBytes int64 = 1024 * 1024 * 1024 // .jar/.zip hard cap
	MaxBinaryBytes  int64 = 32 * 1024 * 1024  // generic binary fallback scan

	// MaxDeepArchiveBytes bounds entry-by-entry archive walking; an
	// archive over this size but under MaxArchiveBytes is still scanned,
	// but as one opaque binary rather than walked entry by entry.
	MaxDeepArchiveBytes int64 = 256 * 1024 * 1024
)

// gateFor returns the read-size ceiling that applies to a routed Kind.
func gateFor(k router.Kind) int64 {
	switch k {
	case router.KindJava, router.KindPython, router.KindCpp:
		return MaxSourceBytes
	case router.KindCertKey:
		return MaxCertKeyBytes
	case router.KindClass:
		return MaxClassBytes
	case router.KindArchive:
		return MaxArchiveBytes
	default:
		return MaxBinaryBytes
	}
}

// denyRoots lists absolute path prefixes the traversal driver never
// descends into, regardless of Recurse — pseudo-filesystems whose
// "files" are unbounded or unsafe to read.
var denyRoots = []string{"/proc", "/sys", "/dev", "/run", "/lost+found"}

func isDenied(path string) bool {
	for _, root := range denyRoots {
		if path == root || hasPathPrefix(path, root) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) <= len(prefix) {
		return false
	}
	return path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
