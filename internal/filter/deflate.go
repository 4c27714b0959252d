package filter

import (
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Gzip decodes gzip streams, including multi-member files.
type Gzip struct{}

func (Gzip) Name() string { return "gzip" }

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Zlib decodes zlib-wrapped deflate streams.
type Zlib struct{}

func (Zlib) Name() string { return "zlib" }

func (Zlib) NewReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

// Deflate decodes raw deflate streams with no header or trailer.
type Deflate struct{}

func (Deflate) Name() string { return "deflate" }

func (Deflate) NewReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}
