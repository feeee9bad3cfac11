package archgrep

import (
	"bufio"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("(unclosed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(unclosed")
}

func TestPattern_CountLine(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		line    string
		want    int
	}{
		{name: "overlapping pair", pattern: "aa", line: "aaa", want: 2},
		{name: "single char", pattern: "a", line: "aaa", want: 3},
		{name: "no occurrence", pattern: "xyz", line: "aaa", want: 0},
		{name: "empty line", pattern: "a", line: "", want: 0},
		{name: "case insensitive", pattern: "Java", line: "this is java code", want: 1},
		{name: "mixed case", pattern: "java", line: "JAVA Java jAvA", want: 3},
		{name: "greedy restarts one past start", pattern: "a+", line: "aaa", want: 3},
		{name: "anchor sees real line start", pattern: "^a", line: "aaa", want: 1},
		{name: "end anchor", pattern: "a$", line: "aaa", want: 1},
		{name: "empty pattern matches every position", pattern: "", line: "ab", want: 3},
		{name: "lookbehind keeps context", pattern: "(?<=a)b", line: "abab", want: 2},
		{name: "multibyte runes", pattern: "é", line: "ÉéÉ", want: 3},
		{name: "non ascii overlap", pattern: "жж", line: "жжж", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			got, err := p.CountLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "CountLine(%q) with pattern %q", tt.line, tt.pattern)
		})
	}
}

// asciiPrefix is longer than the sniffed preview and has no charset hint.
var asciiPrefix = "<!DOCTYPE html>\n<html><head><title>t</title></head>\n" + strings.Repeat("<p>plain ascii text</p>\n", 60)

func TestPattern_CountReader(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    int
	}{
		{name: "empty", pattern: "java", input: "", want: 0},
		{name: "mixed line endings", pattern: "java", input: "java\nJAVA\r\nJava\rjava", want: 4},
		{name: "no match across lines", pattern: "ab", input: "a\nb\r\na\rb", want: 0},
		{name: "overlap per line", pattern: "aa", input: "aaa\naaa\n", want: 4},
		{name: "utf8 bom", pattern: "java", input: "\xef\xbb\xbfjava java", want: 2},
		{name: "utf8 after ascii preview", pattern: "é", input: asciiPrefix + "<p>é ява</p>", want: 1},
		{name: "cyrillic after ascii preview", pattern: "ява", input: asciiPrefix + "<p>é ява</p>", want: 1},
		{name: "cyrillic case after ascii preview", pattern: "Ява", input: asciiPrefix + "<p>é ява</p>", want: 1},
		{name: "utf8 without preview padding", pattern: "ява", input: "<p>é ява</p>", want: 1},
		{name: "unlabelled latin1 is not guessed", pattern: "café", input: "caf\xe9", want: 0},
		{
			name:    "meta charset latin1",
			pattern: "café",
			input:   "<html><head><meta charset=\"iso-8859-1\"></head><body>caf\xe9 CAF\xc9</body></html>",
			want:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			got, err := p.CountReader(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPattern_CountReader_LongLine(t *testing.T) {
	p, err := Compile("needle")
	require.NoError(t, err)

	line := strings.Repeat("x", 200*1024) + "needle" + strings.Repeat("y", 200*1024)
	got, err := p.CountReader(strings.NewReader(line + "\nneedle"))
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestPattern_CountReader_ReadError(t *testing.T) {
	p, err := Compile("a")
	require.NoError(t, err)

	r := iotest.TimeoutReader(strings.NewReader(strings.Repeat("a\n", 2048)))
	got, err := p.CountReader(r)
	require.Error(t, err)
	assert.Zero(t, got)
}

func TestScanLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "no terminator", input: "abc", want: []string{"abc"}},
		{name: "trailing newline", input: "abc\n", want: []string{"abc"}},
		{name: "blank lines kept", input: "a\n\nb", want: []string{"a", "", "b"}},
		{name: "crlf", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "lone cr", input: "a\rb\r", want: []string{"a", "b"}},
		{name: "cr cr", input: "a\r\rb", want: []string{"a", "", "b"}},
		{name: "lf cr", input: "a\n\rb", want: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One byte at a time forces "\r\n" to straddle reads.
			for _, r := range []struct {
				name string
				rd   *bufio.Scanner
			}{
				{"whole", bufio.NewScanner(strings.NewReader(tt.input))},
				{"bytewise", bufio.NewScanner(iotest.OneByteReader(strings.NewReader(tt.input)))},
			} {
				r.rd.Split(scanLines)
				var got []string
				for r.rd.Scan() {
					got = append(got, r.rd.Text())
				}
				require.NoError(t, r.rd.Err(), r.name)
				assert.Equal(t, tt.want, got, r.name)
			}
		})
	}
}
