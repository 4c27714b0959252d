package header

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// MaxLineLength bounds a single header line.
const MaxLineLength = 64 * 1024

// LineReader yields one line per call without its terminator and returns
// io.EOF when no lines remain.
type LineReader interface {
	ReadLine(maxLen int) ([]byte, error)
}

// Syntax configures the tokenizer for one header dialect.
type Syntax struct {
	Markers []string // tokens dropped before the key
	End     string   // sentinel line, compared after trimming
}

// Entry is one key/value pair and the 1-based line it came from.
type Entry struct {
	Key   string
	Value string
	Line  int
}

// Problem records a line that was skipped.
type Problem struct {
	Line   int
	Text   string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("line %d %q: %s", p.Line, p.Text, p.Reason)
}

// Result is the outcome of parsing one header.
type Result struct {
	Table      *Table
	Problems   []Problem
	Terminated bool // the sentinel line was seen
	Lines      int  // lines consumed, sentinel included
}

// Parse reads lines from r until the sentinel or end of input.
func Parse(r LineReader, syntax Syntax) (*Result, error) {
	markers := make(map[string]bool, len(syntax.Markers))
	for _, m := range syntax.Markers {
		markers[m] = true
	}

	res := &Result{Table: NewTable()}
	for {
		raw, err := r.ReadLine(MaxLineLength)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("header line %d: %w", res.Lines+1, err)
		}
		res.Lines++

		line, err := DecodeLatin1(raw)
		if err != nil {
			return res, fmt.Errorf("header line %d: %w", res.Lines, err)
		}
		if syntax.End != "" && strings.TrimSpace(line) == syntax.End {
			res.Terminated = true
			return res, nil
		}

		tokens := strings.Fields(line)
		for len(tokens) > 0 && markers[tokens[0]] {
			tokens = tokens[1:]
		}
		switch {
		case len(tokens) == 0:
			if strings.TrimSpace(line) != "" {
				res.Problems = append(res.Problems, Problem{Line: res.Lines, Text: line, Reason: "no key"})
			}
		case len(tokens) == 1:
			res.Problems = append(res.Problems, Problem{Line: res.Lines, Text: line, Reason: "key " + tokens[0] + " has no value"})
		default:
			res.Table.Set(tokens[0], strings.Join(tokens[1:], " "), res.Lines)
		}
	}
}

// DecodeLatin1 converts ISO-8859-1 bytes to a UTF-8 string.
func DecodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding ISO-8859-1: %w", err)
	}
	return string(out), nil
}
