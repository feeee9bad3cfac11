package archgrep

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultUserAgent is sent with every download unless overridden.
const DefaultUserAgent = "archgrep/1.0"

// NewHTTPClient returns a client that understands http, https and file URLs.
// A zero timeout means no timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &http.Client{Transport: t, Timeout: timeout}
}

// Downloader fetches a URL into a fresh temporary file.
type Downloader struct {
	Client    *http.Client
	UserAgent string
	// Dir is where the temporary file is created. Empty means os.TempDir().
	Dir string
	// Out receives progress lines.
	Out io.Writer
}

// Download streams the body of url into a new temporary file and returns its
// path and size. The file is named after the current time in nanoseconds.
// On error no file is left behind.
func (d *Downloader) Download(ctx context.Context, url string) (path string, size int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	f, err := os.CreateTemp(d.Dir, strconv.FormatInt(time.Now().UnixNano(), 10)+"-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", f.Name(), cerr)
		}
		if err != nil {
			os.Remove(f.Name())
			path, size = "", 0
		}
	}()

	client := d.Client
	if client == nil {
		client = NewHTTPClient(0)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	out := d.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "Downloading %s as %s\n", url, f.Name())

	size, err = io.Copy(f, resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("write %s: %w", f.Name(), err)
	}
	fmt.Fprintf(out, "Archive downloaded. Size is %d bytes (%s).\n", size, humanize.Bytes(uint64(size)))

	return f.Name(), size, nil
}
