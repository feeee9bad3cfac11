package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	archgrep "github.com/IdahoAvionics/go-archgrep"
	"github.com/IdahoAvionics/go-archgrep/internal/logging"
)

const usage = "archgrep [FLAGS] <archive_url> <search_pattern>"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := ff.NewFlagSet("archgrep")
	var (
		timeout   = fs.DurationLong("timeout", 0, "deadline for download and scan, 0 for none")
		tempDir   = fs.StringLong("temp-dir", "", "directory for the downloaded archive (default: system temp dir)")
		userAgent = fs.StringLong("user-agent", archgrep.DefaultUserAgent, "User-Agent header sent with the download")
		logLevel  = fs.StringLong("log-level", "info", "log level: debug, info, warn, error")
		logFormat = fs.StringLong("log-format", "auto", "log format: auto, text, json")
	)

	err := ff.Parse(fs, args)
	switch {
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintln(stdout, ffhelp.Flags(fs, usage))
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintln(stderr, ffhelp.Flags(fs, usage))
		return 1
	}

	// Flags must precede the positional arguments; anything after them lands
	// here, so extra arguments are rejected rather than ignored.
	rest := fs.GetArgs()
	switch {
	case len(rest) < 2:
		fmt.Fprintln(stderr, "Please specify url and pattern for search.")
		fmt.Fprintf(stderr, "usage: %s\n", usage)
		return 1
	case len(rest) > 2:
		fmt.Fprintf(stderr, "error: unexpected arguments after pattern: %q\n", rest[2:])
		fmt.Fprintf(stderr, "usage: %s\n", usage)
		return 1
	}

	logger, err := logging.New(stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	_, err = archgrep.Run(ctx, rest[0], rest[1], archgrep.Options{
		UserAgent: *userAgent,
		TempDir:   *tempDir,
		Stdout:    stdout,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
