package archgrep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Pattern is a compiled case-insensitive search pattern. It is read-only after
// Compile and may be shared across entries.
type Pattern struct {
	expr string
	re   *regexp2.Regexp
}

// Compile compiles expr as a case-insensitive regular expression. The syntax
// is the Java/.NET flavour accepted by regexp2, so lookarounds and
// backreferences work.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

func (p *Pattern) String() string { return p.expr }

// CountLine counts matches in line. After each match the next search starts
// one character past the start of that match, not its end, so overlapping
// occurrences are all counted: "aa" in "aaa" is 2.
//
// Searches keep the whole line as context, so ^ and lookbehinds only see the
// real line start.
func (p *Pattern) CountLine(line string) (int, error) {
	runes := []rune(line)
	count := 0
	for from := 0; from <= len(runes); {
		m, err := p.re.FindRunesMatchStartingAt(runes, from)
		if err != nil {
			return count, err
		}
		if m == nil {
			break
		}
		count++
		from = m.Index + 1
	}
	return count, nil
}

// maxLineLength effectively disables bufio.Scanner's token limit; minified
// HTML routinely puts a whole page on one line.
const maxLineLength = math.MaxInt32

// previewSize is how much of an entry is sniffed for a BOM or <meta charset>.
const previewSize = 1024

// CountReader decodes r as text and returns the sum of CountLine over its
// lines. A BOM or <meta charset> in the first bytes selects the encoding;
// anything else is read as UTF-8. On any read error the partial count is
// discarded.
func (p *Pattern) CountReader(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	preview, err := br.Peek(previewSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read preview: %w", err)
	}
	if len(preview) == 0 {
		return 0, nil
	}

	var text io.Reader = br
	if e, _, certain := charset.DetermineEncoding(preview, "text/html"); certain && e != encoding.Nop {
		text = transform.NewReader(br, e.NewDecoder())
	}

	sc := bufio.NewScanner(text)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	sc.Split(scanLines)

	count := 0
	for sc.Scan() {
		n, err := p.CountLine(sc.Text())
		if err != nil {
			return 0, fmt.Errorf("match line: %w", err)
		}
		count += n
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read lines: %w", err)
	}
	return count, nil
}
