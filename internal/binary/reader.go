// Package binary provides positioned binary I/O over random-access sources.
package binary

import (
	"encoding/binary"
	"errors"
	"io"
)

// Errors
var (
	ErrNegativeSkip   = errors.New("negative skip")
	ErrNegativeOffset = errors.New("negative offset")
	ErrLineTooLong    = errors.New("line exceeds maximum length")
)

// lineChunk is the read granularity used when scanning for line endings.
const lineChunk = 256

// Reader is a cursor over an io.ReaderAt of known size. Reads advance the
// position; ReadAt on the underlying source is never affected.
type Reader struct {
	r     io.ReaderAt
	size  int64
	order binary.ByteOrder
	pos   int64
}

// NewReader creates a reader over r, which holds size bytes.
// A nil order defaults to little-endian.
func NewReader(r io.ReaderAt, size int64, order binary.ByteOrder) *Reader {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Reader{
		r:     r,
		size:  size,
		order: order,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{
		r:     r.r,
		size:  r.size,
		order: r.order,
		pos:   offset,
	}
}

// WithOrder returns a new reader at the same position using the given byte order.
func (r *Reader) WithOrder(order binary.ByteOrder) *Reader {
	nr := r.At(r.pos)
	nr.order = order
	return nr
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Size returns the total number of bytes in the source.
func (r *Reader) Size() int64 {
	return r.size
}

// Remaining returns the number of bytes between the position and the end.
func (r *Reader) Remaining() int64 {
	if r.pos >= r.size {
		return 0
	}
	return r.size - r.pos
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// Seek moves to an absolute offset. Offsets past the end are allowed;
// the next read reports EOF.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 {
		return ErrNegativeOffset
	}
	r.pos = offset
	return nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) error {
	if n < 0 {
		return ErrNegativeSkip
	}
	r.pos += n
	return nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.pos >= r.size {
		return 0, io.EOF
	}
	if rem := r.size - r.pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := r.r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if n == len(p) {
		return n, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// ReadAt implements io.ReaderAt without touching the position.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativeOffset
	}
	if off >= r.size {
		return 0, io.EOF
	}
	want := len(p)
	if rem := r.size - off; int64(want) > rem {
		p = p[:rem]
	}
	n, err := r.r.ReadAt(p, off)
	if n == want {
		return n, nil
	}
	if err == nil || n == len(p) {
		err = io.EOF
	}
	return n, err
}

// ReadFull fills p from the current position. On a short read the position
// is left unchanged and io.ErrUnexpectedEOF (or the source error) is returned.
func (r *Reader) ReadFull(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if r.pos+int64(len(p)) > r.size {
		return io.ErrUnexpectedEOF
	}
	n, err := r.r.ReadAt(p, r.pos)
	if n < len(p) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	r.pos += int64(n)
	return nil
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Peek reads up to n bytes without advancing the position. Fewer bytes are
// returned when the source ends first.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, r.pos)
	if got > 0 && err == io.EOF {
		err = nil
	}
	return buf[:got], err
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(buf), nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadLine reads bytes up to and including the next '\n' and returns them
// without the line terminator (a trailing '\r' is dropped too). The final
// line of a source may end without '\n'. At end of source io.EOF is returned.
// Lines longer than maxLen bytes fail with ErrLineTooLong.
func (r *Reader) ReadLine(maxLen int) ([]byte, error) {
	if r.pos >= r.size {
		return nil, io.EOF
	}

	var line []byte
	chunk := make([]byte, lineChunk)
	off := r.pos
	for off < r.size {
		n, err := r.ReadAt(chunk, off)
		if n == 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		for i := 0; i < n; i++ {
			if chunk[i] == '\n' {
				line = append(line, chunk[:i]...)
				r.pos = off + int64(i) + 1
				return trimCR(line), nil
			}
		}
		line = append(line, chunk[:n]...)
		if maxLen > 0 && len(line) > maxLen {
			return nil, ErrLineTooLong
		}
		off += int64(n)
	}

	r.pos = r.size
	return trimCR(line), nil
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
