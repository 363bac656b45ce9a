// Package archive implements the archive walker: it lists ZIP/JAR
// entries, filters out metadata and noise extensions, and hands each
// surviving entry's uncompressed bytes back to the router.
package archive

import "strings"

// metadataPrefixes are entry-name prefixes treated as archive metadata,
// never worth scanning for algorithm evidence.
var metadataPrefixes = []string{"META-INF/"}

// noiseExtensions are file types this scanner never routes to a
// sub-scanner: documents, images, fonts, media, nested compressed
// archives, signature artifacts, and manifest/config text.
var noiseExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".svg": true, ".ttf": true, ".otf": true, ".woff": true, ".woff2": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true,
	".gz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true, ".tar": true,
	".rsa": true, ".dsa": true, ".sf": true,
	".md": true, ".txt": true, ".xml": true, ".json": true, ".yaml": true, ".yml": true,
	".properties": true, ".license": true, ".notice": true,
}

// IsNoise reports whether an archive entry name should be skipped: it
// falls under a metadata prefix, or its extension is in the noise list.
func IsNoise(name string) bool {
	for _, p := range metadataPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	ext := extOf(name)
	return noiseExtensions[ext]
}

func extOf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}
