package sciio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/robert-malhotra/go-sciio/internal/binary"
)

// SourceHandle is a seekable, byte-addressable input.
//
// Read advances the position; ReadAt never does. Skip moves forward
// relative to the position and may pass the end, in which case the next
// read fails. Operations after Close return ErrClosed.
type SourceHandle interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
	Skip(n int64) error
	Position() int64
	Length() int64
	Location() string
}

// Handle is the SourceHandle implementation backed by an io.ReaderAt.
type Handle struct {
	location string
	r        *binary.Reader
	closer   io.Closer
	closed   bool
}

// NewHandle returns a handle over r, which holds size bytes. closer, if not
// nil, is closed with the handle.
func NewHandle(location string, r io.ReaderAt, size int64, closer io.Closer) *Handle {
	return &Handle{
		location: location,
		r:        binary.NewReader(r, size, nil),
		closer:   closer,
	}
}

// NewBytesHandle returns an in-memory handle.
func NewBytesHandle(location string, data []byte) *Handle {
	return NewHandle(location, bytes.NewReader(data), int64(len(data)), nil)
}

// OpenFile opens the file at path for reading.
func OpenFile(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", path)
	}
	return NewHandle(path, f, info.Size(), f), nil
}

func (h *Handle) Location() string { return h.location }

func (h *Handle) Position() int64 { return h.r.Pos() }

func (h *Handle) Length() int64 { return h.r.Size() }

func (h *Handle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}
	return h.r.Read(p)
}

func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}
	return h.r.ReadAt(p, off)
}

// Seek implements io.Seeker.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, ErrClosed
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += h.r.Pos()
	case io.SeekEnd:
		offset += h.r.Size()
	default:
		return 0, fmt.Errorf("seek %s: invalid whence %d", h.location, whence)
	}
	if err := h.r.Seek(offset); err != nil {
		return 0, fmt.Errorf("seek %s to %d: %w", h.location, offset, err)
	}
	return offset, nil
}

func (h *Handle) Skip(n int64) error {
	if h.closed {
		return ErrClosed
	}
	if err := h.r.Skip(n); err != nil {
		return fmt.Errorf("skip %d bytes in %s: %w", n, h.location, err)
	}
	return nil
}

// ReadLine reads the next line without its terminator.
func (h *Handle) ReadLine(maxLen int) ([]byte, error) {
	if h.closed {
		return nil, ErrClosed
	}
	return h.r.ReadLine(maxLen)
}

// Close releases the handle. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.closer != nil {
		return h.closer.Close()
	}
	return nil
}

// Clone returns an independent handle at position 0 over the same in-memory
// data. It reports false for closed handles and handles owning a resource
// such as a file.
func (h *Handle) Clone() (*Handle, bool) {
	if h.closed || h.closer != nil {
		return nil, false
	}
	return &Handle{location: h.location, r: h.r.At(0)}, true
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool { return h.closed }

// Opener turns a location into an open source handle. Missing locations
// report an error matching fs.ErrNotExist.
type Opener func(location string) (SourceHandle, error)

// FileOpener opens locations as local file paths.
func FileOpener(location string) (SourceHandle, error) {
	h, err := OpenFile(location)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// MemoryOpener serves locations from an in-memory file set. The map is read
// at open time, so later additions are visible.
func MemoryOpener(files map[string][]byte) Opener {
	return func(location string) (SourceHandle, error) {
		data, ok := files[location]
		if !ok {
			return nil, &fs.PathError{Op: "open", Path: location, Err: fs.ErrNotExist}
		}
		return NewBytesHandle(location, data), nil
	}
}

// isOpen reports whether h can still serve reads.
func isOpen(h SourceHandle) bool {
	if h == nil {
		return false
	}
	if c, ok := h.(interface{ Closed() bool }); ok {
		return !c.Closed()
	}
	return true
}
