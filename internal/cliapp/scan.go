package cliapp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/ashlarsec/cryptolens/pkg/cache"
	"github.com/ashlarsec/cryptolens/pkg/catalog"
	"github.com/ashlarsec/cryptolens/pkg/detection"
	"github.com/ashlarsec/cryptolens/pkg/model"
	"github.com/ashlarsec/cryptolens/pkg/scanner"
)

// ScanConfig gathers everything the scan subcommand needs, separated from
// flag.FlagSet so RunScan stays testable without touching os.Args. It
// embeds the core+CLI option set from pkg/model rather than duplicating
// its fields.
type ScanConfig struct {
	Target string
	model.ScanOptions
	Format string // "json" or "csv"
}

// RunScan loads the pattern catalog, opens the incremental cache (unless
// disabled), scans cfg.Target, and writes the result to out in cfg.Format.
// When cfg.Progress is set, progressOut receives a line per file scanned
// as the scan streams rather than running as one opaque batch.
func RunScan(ctx context.Context, cfg ScanConfig, out io.Writer, progressOut io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cat, _, err := catalog.Load(logger)
	if err != nil {
		logger.Warn("scan: running with an empty pattern catalog", "error", err)
	}
	s := scanner.New(cat, nil, logger)

	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("open scan cache: %w", err)
		}
		defer c.Close()
		s = s.WithCache(c)
	}

	var dets []detection.Detection
	var files int
	var scanErr error
	if cfg.Progress {
		dets, files, scanErr = runScanStreaming(ctx, s, cfg, progressOut)
	} else {
		dets, files, scanErr = s.ScanPath(ctx, cfg.Target, cfg.Options)
	}
	if scanErr != nil {
		return fmt.Errorf("scan %s: %w", cfg.Target, scanErr)
	}

	switch cfg.Format {
	case "csv":
		return writeCSV(out, dets)
	default:
		return writeJSON(out, cfg.Target, files, dets)
	}
}

// runScanStreaming wires ctx.Done() through as the streaming walk's
// isCancelled check, so a Ctrl-C (or a caller-supplied deadline) stops the
// walk mid-tree instead of running to completion regardless of ctx.
func runScanStreaming(ctx context.Context, s *scanner.Scanner, cfg ScanConfig, progressOut io.Writer) ([]detection.Detection, int, error) {
	var dets []detection.Detection
	files := 0
	isCancelled := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}
	err := s.ScanPathStreaming(cfg.Target, cfg.Options,
		func(d detection.Detection) { dets = append(dets, d) },
		func(path string, doneFiles, totalFiles int, doneBytes, totalBytes int64) {
			files = totalFiles
			if progressOut != nil {
				fmt.Fprintf(progressOut, "[%d/%d] %s\n", doneFiles, totalFiles, path)
			}
		},
		isCancelled,
	)
	if err == nil && isCancelled() {
		err = ctx.Err()
	}
	return dets, files, err
}

func writeJSON(out io.Writer, target string, files int, dets []detection.Detection) error {
	output := model.ScanOutput{
		Summary:    model.Summarize(target, files, dets),
		Detections: dets,
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// writeCSV writes detections in the file,offset_or_line,pattern,match,
// evidence,severity column order.
func writeCSV(out io.Writer, dets []detection.Detection) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"file", "offset_or_line", "pattern", "match", "evidence", "severity"}); err != nil {
		return err
	}
	for _, d := range dets {
		row := []string{
			d.FilePath,
			strconv.Itoa(d.Position),
			d.Algorithm,
			d.Match,
			d.EvidenceType,
			d.Severity,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
