// Command cryptolens scans source trees, archives, class files, and
// certificate/key material for cryptographic algorithm usage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashlarsec/cryptolens/internal/cliapp"
	"github.com/ashlarsec/cryptolens/pkg/model"
	"github.com/ashlarsec/cryptolens/pkg/scanner"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cryptolens - static cryptography inventory scanner

Usage:
  cryptolens scan [--recurse] [--deep-jar] [--cache PATH] [--format json|csv] [--progress] <path>
  cryptolens patterns [--export FILE] [--init FILE]
  cryptolens cache --clear|--stats [--cache PATH]
  cryptolens version

Commands:
  scan      Walk a file or directory and report cryptographic algorithm usage
  patterns  Show/export the active pattern catalog, or seed a starter one
  cache     Inspect or clear the incremental-scan cache
  version   Display the engine version

Examples:
  cryptolens scan --recurse ./src
  cryptolens scan --recurse --format csv ./src > report.csv
  cryptolens patterns
  cryptolens patterns --init patterns.json
  cryptolens cache --stats
  cryptolens version
`)
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	scanCmd := flag.NewFlagSet("scan", flag.ExitOnError)
	scanRecurse := scanCmd.Bool("recurse", false, "Descend into subdirectories")
	scanDeepJar := scanCmd.Bool("deep-jar", false, "Walk large archives entry-by-entry instead of treating them as opaque binaries")
	scanCache := scanCmd.String("cache", "", "Incremental-scan cache path; when empty, env "+cliapp.EnvCachePath+" and then .cryptolens-cache are used (see --no-cache)")
	scanNoCache := scanCmd.Bool("no-cache", false, "Disable the incremental-scan cache entirely")
	scanFormat := scanCmd.String("format", "json", "Output format: json or csv")
	scanProgress := scanCmd.Bool("progress", false, "Stream per-file progress to stderr instead of scanning as one batch")

	patternsCmd := flag.NewFlagSet("patterns", flag.ExitOnError)
	patternsExport := patternsCmd.String("export", "", "Write a snapshot of the active catalog to this path")
	patternsInit := patternsCmd.String("init", "", "Write a starter patterns.json seeded from the built-in baseline to this path")

	cacheCmd := flag.NewFlagSet("cache", flag.ExitOnError)
	cachePath := cacheCmd.String("cache", "", "Cache path (env "+cliapp.EnvCachePath+")")
	cacheStats := cacheCmd.Bool("stats", false, "Print cache entry counts")
	cacheClear := cacheCmd.Bool("clear", false, "Remove every cached entry")

	switch cmd {
	case "scan":
		if err := scanCmd.Parse(os.Args[2:]); err != nil {
			cliapp.ExitError(err)
		}
		if scanCmd.NArg() < 1 {
			scanCmd.Usage()
			os.Exit(1)
		}
		cachePath := ""
		if !*scanNoCache {
			cachePath = cliapp.ResolveCachePath(*scanCache)
		}
		cfg := cliapp.ScanConfig{
			Target: scanCmd.Arg(0),
			ScanOptions: model.ScanOptions{
				Options:   scanner.Options{Recurse: *scanRecurse, DeepJar: *scanDeepJar},
				CachePath: cachePath,
				Progress:  *scanProgress,
			},
			Format: *scanFormat,
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := cliapp.RunScan(ctx, cfg, os.Stdout, os.Stderr, nil); err != nil {
			cliapp.ExitError(err)
		}

	case "patterns":
		if err := patternsCmd.Parse(os.Args[2:]); err != nil {
			cliapp.ExitError(err)
		}
		if *patternsInit != "" {
			if err := cliapp.RunPatternsInit(*patternsInit); err != nil {
				cliapp.ExitError(err)
			}
			break
		}
		if *patternsExport != "" {
			if err := cliapp.RunPatternsExport(*patternsExport, nil); err != nil {
				cliapp.ExitError(err)
			}
			break
		}
		if err := cliapp.RunPatternsList(os.Stdout, nil); err != nil {
			cliapp.ExitError(err)
		}

	case "cache":
		if err := cacheCmd.Parse(os.Args[2:]); err != nil {
			cliapp.ExitError(err)
		}
		resolved := cliapp.ResolveCachePath(*cachePath)
		switch {
		case *cacheClear:
			if err := cliapp.RunCacheClear(resolved, os.Stdout); err != nil {
				cliapp.ExitError(err)
			}
		case *cacheStats:
			if err := cliapp.RunCacheStats(resolved, os.Stdout); err != nil {
				cliapp.ExitError(err)
			}
		default:
			cacheCmd.Usage()
			os.Exit(1)
		}

	case "version":
		if err := cliapp.RunVersion(os.Stdout); err != nil {
			cliapp.ExitError(err)
		}

	default:
		flag.Usage()
		os.Exit(1)
	}
}
