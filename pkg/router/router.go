// Package router dispatches a file's extension and content to the
// correct sub-scanner kind, per the extension table plus a content-sniff
// fallback for ambiguous or extensionless input.
package router

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ashlarsec/cryptolens/pkg/certkey"
)

// Kind identifies which sub-scanner a routed file should go through.
type Kind int

const (
	KindArchive Kind = iota
	KindClass
	KindJava
	KindPython
	KindCpp
	KindCertKey
	KindBinary
)

var archiveExts = map[string]bool{".jar": true, ".zip": true}
var cppExts = map[string]bool{".c": true, ".cc": true, ".cxx": true, ".cpp": true, ".h": true, ".hpp": true, ".hh": true, ".ld": true}
var certExts = map[string]bool{
	".pem": true, ".crt": true, ".cer": true, ".der": true, ".key": true, ".csr": true,
	".p7b": true, ".p7c": true, ".p8": true, ".pk8": true, ".pfx": true, ".p12": true, ".spc": true,
}

// sniffWindow bounds how much of a file's head is inspected when its
// extension doesn't resolve to a route on its own.
const sniffWindow = 4096

// Route selects a Kind for a file given its path and (optionally,
// already-read) content. content may be nil or shorter than sniffWindow;
// Route only reads what it's given, it never does I/O itself.
func Route(path string, content []byte) Kind {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case archiveExts[ext]:
		return KindArchive
	case ext == ".class":
		return KindClass
	case ext == ".java":
		return KindJava
	case ext == ".py":
		return KindPython
	case cppExts[ext]:
		return KindCpp
	case certExts[ext]:
		return KindCertKey
	}

	head := content
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	if len(head) > 0 && certkey.IsPEM(head) {
		return KindCertKey
	}

	// mimetype sniffing catches the remaining ambiguous/extensionless
	// cases: a detected archive/zip mime routes to the archive walker
	// even without a .jar/.zip suffix; everything else not otherwise
	// classified falls back to a generic binary scan.
	if len(head) > 0 {
		mt := mimetype.Detect(head)
		if mt.Is("application/zip") {
			return KindArchive
		}
	}

	return KindBinary
}
