package archgrep

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
)

// entryNamePattern selects the entries to search. It must match the full
// entry name and is case-sensitive, so "page.HTML" and "page.htm" are skipped.
var entryNamePattern = regexp.MustCompile(`^.*html$`)

// CountMatches opens the zip archive at archivePath and returns the total
// number of matches of p across all HTML entries. Per-entry counts are written
// to out.
//
// Failures never abort the scan: an archive that cannot be opened yields 0,
// and an entry that cannot be read contributes 0. Both are logged at error
// level, so a zero total is only meaningful alongside the log.
//
// ctx is checked between entries; once it is done the scan stops and the
// count so far is returned. Callers decide what a canceled scan means.
func CountMatches(ctx context.Context, archivePath string, p *Pattern, out io.Writer, logger *slog.Logger) int {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		logger.Error("cannot search within archive", "path", archivePath, "err", err)
		return 0
	}
	defer zr.Close()

	return countArchive(ctx, &zr.Reader, p, out, logger)
}

func countArchive(ctx context.Context, zr *zip.Reader, p *Pattern, out io.Writer, logger *slog.Logger) int {
	total := 0
	for _, f := range zr.File {
		if !entryNamePattern.MatchString(f.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			logger.Error("scan stopped", "before", f.Name, "err", err)
			return total
		}
		total += countEntry(f, p, out, logger)
	}
	return total
}

func countEntry(f *zip.File, p *Pattern, out io.Writer, logger *slog.Logger) int {
	n, err := countFile(f, p)
	if err != nil {
		logger.Error("error when reading entry", "entry", f.Name, "err", err)
		return 0
	}
	fmt.Fprintf(out, "%s has %d occurrences.\n", f.Name, n)
	return n
}

func countFile(f *zip.File, p *Pattern) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	n, err := p.CountReader(rc)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return n, nil
}
