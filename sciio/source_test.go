package sciio

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestHandleReadAndSeek(t *testing.T) {
	h := NewBytesHandle("mem", []byte("0123456789"))

	if h.Length() != 10 || h.Location() != "mem" {
		t.Fatalf("unexpected handle: length=%d location=%q", h.Length(), h.Location())
	}

	buf := make([]byte, 3)
	if _, err := io.ReadFull(h, buf); err != nil || string(buf) != "012" {
		t.Fatalf("Read = %q (%v)", buf, err)
	}
	if h.Position() != 3 {
		t.Errorf("expected position 3, got %d", h.Position())
	}

	if _, err := h.ReadAt(buf, 7); err != nil || string(buf) != "789" {
		t.Errorf("ReadAt = %q (%v)", buf, err)
	}
	if h.Position() != 3 {
		t.Errorf("ReadAt must not move the position, got %d", h.Position())
	}

	if err := h.Skip(2); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if h.Position() != 5 {
		t.Errorf("expected position 5, got %d", h.Position())
	}

	tests := []struct {
		offset int64
		whence int
		want   int64
	}{
		{2, io.SeekStart, 2},
		{3, io.SeekCurrent, 5},
		{-1, io.SeekEnd, 9},
	}
	for _, tt := range tests {
		pos, err := h.Seek(tt.offset, tt.whence)
		if err != nil || pos != tt.want || h.Position() != tt.want {
			t.Errorf("Seek(%d, %d) = %d (%v), want %d", tt.offset, tt.whence, pos, err, tt.want)
		}
	}
	if _, err := h.Seek(-20, io.SeekCurrent); err == nil {
		t.Error("seeking before the start must fail")
	}
}

func TestHandleSkipPastEnd(t *testing.T) {
	h := NewBytesHandle("mem", []byte("abc"))
	if err := h.Skip(10); err != nil {
		t.Fatalf("Skip past end must succeed: %v", err)
	}
	if _, err := h.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("expected EOF after skipping past the end, got %v", err)
	}
	if err := h.Skip(-1); err == nil {
		t.Error("negative skip must fail")
	}
}

func TestHandleReadLine(t *testing.T) {
	h := NewBytesHandle("mem", []byte("first\r\nsecond\nlast"))
	for _, want := range []string{"first", "second", "last"} {
		line, err := h.ReadLine(0)
		if err != nil || string(line) != want {
			t.Fatalf("ReadLine = %q (%v), want %q", line, err, want)
		}
	}
	if _, err := h.ReadLine(0); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestHandleClosed(t *testing.T) {
	closer := &countingCloser{}
	h := NewHandle("mem", bytes.NewReader([]byte("abc")), 3, closer)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if closer.n != 1 {
		t.Errorf("underlying closer called %d times, want 1", closer.n)
	}
	if !h.Closed() || isOpen(h) {
		t.Error("handle must report closed")
	}

	if _, err := h.Read(make([]byte, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Read: expected ErrClosed, got %v", err)
	}
	if _, err := h.ReadAt(make([]byte, 1), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadAt: expected ErrClosed, got %v", err)
	}
	if _, err := h.Seek(0, io.SeekStart); !errors.Is(err, ErrClosed) {
		t.Errorf("Seek: expected ErrClosed, got %v", err)
	}
	if err := h.Skip(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Skip: expected ErrClosed, got %v", err)
	}
}

type countingCloser struct{ n int }

func (c *countingCloser) Close() error {
	c.n++
	return nil
}

func TestMemoryOpener(t *testing.T) {
	files := map[string][]byte{"a": []byte("x")}
	open := MemoryOpener(files)

	h, err := open("a")
	if err != nil || h.Length() != 1 {
		t.Fatalf("open a: %v", err)
	}
	if _, err := open("b"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}

	files["b"] = []byte("yy")
	if h, err := open("b"); err != nil || h.Length() != 2 {
		t.Errorf("later additions must be visible: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer h.Close()
	if h.Length() != 5 || h.Location() != path {
		t.Errorf("unexpected handle: length=%d location=%q", h.Length(), h.Location())
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(h, buf); err != nil || string(buf) != "hello" {
		t.Errorf("Read = %q (%v)", buf, err)
	}

	if _, err := OpenFile(filepath.Join(dir, "missing.bin")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
	if _, err := OpenFile(dir); err == nil {
		t.Error("opening a directory must fail")
	}
}
