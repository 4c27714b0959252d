package filter

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Errors
var (
	ErrUnsupported = errors.New("unsupported compression")
	ErrTooLarge    = errors.New("decoded output exceeds limit")
)

// Filter is the interface implemented by all payload filters.
type Filter interface {
	// Name returns the scheme name the filter was registered under.
	Name() string

	// NewReader returns a reader producing the decoded form of r.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Registry maps scheme names to filter constructors.
var Registry = map[string]func() Filter{
	"gzip":    func() Filter { return Gzip{} },
	"zlib":    func() Filter { return Zlib{} },
	"deflate": func() Filter { return Deflate{} },
}

// New returns the filter for a scheme name. Names are matched without regard
// to case or surrounding space. Uncompressed schemes return a nil filter.
func New(name string) (Filter, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "none", "uncompressed":
		return nil, nil
	}
	constructor, ok := Registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}
	return constructor(), nil
}

// Decode runs f over the whole input and returns the decoded bytes. A
// positive limit preallocates the output and makes any output longer than
// limit fail with ErrTooLarge once limit+1 bytes have been produced.
func Decode(f Filter, input io.Reader, limit int64) ([]byte, error) {
	r, err := f.NewReader(input)
	if err != nil {
		return nil, fmt.Errorf("%s reader: %w", f.Name(), err)
	}
	defer r.Close()

	var src io.Reader = r
	var out []byte
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
		out = make([]byte, 0, limit)
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		out = append(out, buf[:n]...)
		if limit > 0 && int64(len(out)) > limit {
			return nil, fmt.Errorf("%w: %s output passes %d bytes", ErrTooLarge, f.Name(), limit)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s decompress: %w", f.Name(), err)
		}
	}
}
