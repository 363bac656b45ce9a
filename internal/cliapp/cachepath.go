package cliapp

import "os"

// EnvCachePath, when set, names the incremental-scan cache database,
// overriding any --cache flag default.
const EnvCachePath = "CRYPTO_SCANNER_CACHE"

const defaultCachePath = ".cryptolens-cache"

// ResolveCachePath picks the cache database path: an explicit --cache
// flag value wins, then EnvCachePath, then the working-directory
// default. An empty result (never produced here) would mean "no cache".
func ResolveCachePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvCachePath); p != "" {
		return p
	}
	return defaultCachePath
}
