// Package archgrep downloads a zip archive and counts case-insensitive
// matches of a pattern across the HTML files inside it.
package archgrep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

var totalP = color.New(color.Bold).FprintfFunc()

// Options configures Run. The zero value is usable.
type Options struct {
	// Client performs the download. Defaults to NewHTTPClient(0).
	Client    *http.Client
	UserAgent string
	// TempDir holds the downloaded archive for the duration of the run.
	TempDir string
	// Stdout receives progress and report lines. Defaults to io.Discard.
	Stdout io.Writer
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = NewHTTPClient(0)
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Report summarizes a completed run.
type Report struct {
	// ArchivePath is where the archive was downloaded. It no longer exists
	// when Run returns.
	ArchivePath string
	Size        int64
	Matches     int
	Elapsed     time.Duration
}

// Run downloads archiveURL, counts matches of pattern in every HTML entry,
// prints the total and removes the downloaded file.
//
// Only an invalid pattern, a failed download, a ctx that ends before the scan
// finishes or a failed cleanup are errors.
// Problems reading the archive itself are logged and count as zero matches.
func Run(ctx context.Context, archiveURL, pattern string, opts Options) (Report, error) {
	start := time.Now()
	opts = opts.withDefaults()
	out, logger := opts.Stdout, opts.Logger

	p, err := Compile(pattern)
	if err != nil {
		return Report{}, err
	}

	d := &Downloader{
		Client:    opts.Client,
		UserAgent: opts.UserAgent,
		Dir:       opts.TempDir,
		Out:       out,
	}
	path, size, err := d.Download(ctx, archiveURL)
	if err != nil {
		return Report{}, fmt.Errorf("download %s: %w", archiveURL, err)
	}

	removed := false
	defer func() {
		if !removed {
			removeIfExists(path)
		}
	}()
	logger.Debug("archive downloaded", "url", archiveURL, "path", path, "size", size)

	fmt.Fprintf(out, "Find %s occurrences\n", pattern)
	matches := CountMatches(ctx, path, p, out, logger)
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("scan %s: %w", path, err)
	}
	totalP(out, "Number of \"%s\" matches: %d\n", pattern, matches)

	removed = true
	if err := removeIfExists(path); err != nil {
		return Report{}, fmt.Errorf("remove archive: %w", err)
	}
	fmt.Fprintf(out, "File removed: %s\n", path)

	elapsed := time.Since(start)
	fmt.Fprintf(out, "Execution time: %s\n", elapsed)

	return Report{
		ArchivePath: path,
		Size:        size,
		Matches:     matches,
		Elapsed:     elapsed,
	}, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
