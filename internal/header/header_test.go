package header

import (
	"bytes"
	"io"
	"reflect"
	"testing"

	"github.com/robert-malhotra/go-sciio/internal/binary"
)

// bytesReaderAt wraps a byte slice to implement io.ReaderAt.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

var icsSyntax = Syntax{
	Markers: []string{"layout", "representation", "parameter", "history", "sensor"},
	End:     "end",
}

func parseString(t *testing.T, s string) (*Result, *binary.Reader) {
	t.Helper()
	r := binary.NewReader(bytesReaderAt(s), int64(len(s)), nil)
	res, err := Parse(r, icsSyntax)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res, r
}

func TestParseKeyValues(t *testing.T) {
	text := "\t\n" +
		"ics_version\t2.0\n" +
		"filename\tsample\n" +
		"layout\tsizes\t8 15 10\n" +
		"layout order bits   x  y\n" +
		"representation\tbyte_order\t1\n" +
		"history author jane doe\n" +
		"end\n"

	res, _ := parseString(t, text)

	want := []Entry{
		{Key: "ics_version", Value: "2.0", Line: 2},
		{Key: "filename", Value: "sample", Line: 3},
		{Key: "sizes", Value: "8 15 10", Line: 4},
		{Key: "order", Value: "bits x y", Line: 5},
		{Key: "byte_order", Value: "1", Line: 6},
		{Key: "author", Value: "jane doe", Line: 7},
	}
	if got := res.Table.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("entries mismatch:\ngot:  %v\nwant: %v", got, want)
	}
	if !res.Terminated {
		t.Error("expected sentinel to be seen")
	}
	if len(res.Problems) != 0 {
		t.Errorf("expected no problems, got %v", res.Problems)
	}
}

func TestParseStopsAfterSentinel(t *testing.T) {
	header := "sizes 8 2 2\norder bits x y\n  end  \r\n"
	payload := []byte{0xDE, 0xAD, 0x0A, 0xEF}

	res, r := parseString(t, header+string(payload))

	if !res.Terminated {
		t.Fatal("expected sentinel to be seen")
	}
	if r.Pos() != int64(len(header)) {
		t.Errorf("expected reader at %d, got %d", len(header), r.Pos())
	}
	if res.Lines != 3 {
		t.Errorf("expected 3 lines, got %d", res.Lines)
	}
	if _, ok := res.Table.Get("end"); ok {
		t.Error("sentinel must not become a key")
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	text := "sizes 8 4 4\n" +
		"compression\n" +
		"layout\n" +
		"\n" +
		"order bits x y\n"

	res, _ := parseString(t, text)

	if res.Terminated {
		t.Error("no sentinel present")
	}
	if res.Table.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", res.Table.Len())
	}
	if _, ok := res.Table.Get("compression"); ok {
		t.Error("key without value must be skipped")
	}

	if len(res.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", res.Problems)
	}
	if res.Problems[0].Line != 2 || res.Problems[1].Line != 3 {
		t.Errorf("unexpected problem lines: %v", res.Problems)
	}
}

func TestParseDuplicateKeyKeepsPosition(t *testing.T) {
	res, _ := parseString(t, "a 1\nb 2\na 3\n")

	got := res.Table.Entries()
	if len(got) != 2 || got[0].Key != "a" || got[0].Value != "3" || got[0].Line != 3 {
		t.Errorf("unexpected entries: %v", got)
	}
}

func TestParseLatin1(t *testing.T) {
	line := append([]byte("author Ren"), 0xE9, '\n')
	r := binary.NewReader(bytesReaderAt(line), int64(len(line)), nil)

	res, err := Parse(r, icsSyntax)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v, _ := res.Table.Get("author"); v != "René" {
		t.Errorf("expected %q, got %q", "René", v)
	}
}

func TestParseLineTooLong(t *testing.T) {
	long := bytes.Repeat([]byte("k"), MaxLineLength+10)
	r := binary.NewReader(bytesReaderAt(long), int64(len(long)), nil)

	if _, err := Parse(r, icsSyntax); err == nil {
		t.Error("expected error for oversized line")
	}
}

func TestTableMap(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", "1", 1)
	tbl.Set("y", "2", 2)

	want := map[string]string{"x": "1", "y": "2"}
	if got := tbl.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	var nilTable *Table
	if _, ok := nilTable.Get("x"); ok || nilTable.Len() != 0 {
		t.Error("nil table must behave as empty")
	}
}
