package sciio

import (
	"io"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
)

// FormatInfo describes a format.
type FormatInfo struct {
	Name        string
	Description string
	Suffixes    []string // lower-case, without the dot
}

// MatchesSuffix reports whether location ends in one of the format's
// suffixes, ignoring case.
func (i FormatInfo) MatchesSuffix(location string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(location)), ".")
	return ext != "" && slices.Contains(i.Suffixes, ext)
}

// PlaneRequest is a validated plane read handed to a driver.
type PlaneRequest struct {
	ImageIndex int
	PlaneIndex int64
	Image      *ImageMetadata
	Region     Region
	Source     SourceHandle // the requesting reader's handle
}

// Driver is implemented by each format. M is the format's metadata type and
// P its plane type.
//
// Detect may move the handle; Format.Detect restores the position. Decode
// populates an empty M from the session's handle and must leave the session
// in PayloadAcquired. ReadPlane fills p for a request already checked
// against the image, reading through req.Source rather than the metadata's
// handle.
type Driver[M Metadata, P Plane] interface {
	Info() FormatInfo
	Detect(h SourceHandle) (bool, error)
	NewMetadata() M
	Decode(s *Session, m M) error
	NewPlane(img *ImageMetadata, region Region, buf []byte) P
	ReadPlane(m M, req PlaneRequest, p P) error
}

// Format binds a driver to its options. A Format holds no per-dataset state
// and may back any number of parsers and readers.
type Format[M Metadata, P Plane] struct {
	driver Driver[M, P]
	opts   options
}

// NewFormat returns a format for driver d.
func NewFormat[M Metadata, P Plane](d Driver[M, P], opts ...Option) *Format[M, P] {
	return &Format[M, P]{
		driver: d,
		opts:   defaultOptions().with(opts),
	}
}

// Info returns the driver's format description.
func (f *Format[M, P]) Info() FormatInfo { return f.driver.Info() }

// Detect reports whether h holds this format. The handle position is
// unchanged on return.
func (f *Format[M, P]) Detect(h SourceHandle) (bool, error) {
	pos := h.Position()
	ok, err := f.driver.Detect(h)
	if _, serr := h.Seek(pos, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return false, IOError("detect", h.Location(), err)
	}
	return ok, nil
}

// NewMetadata returns empty metadata of the format's type.
func (f *Format[M, P]) NewMetadata() M { return f.driver.NewMetadata() }

// NewParser returns a parser. opts are applied after the format's options.
func (f *Format[M, P]) NewParser(opts ...Option) *Parser[M, P] {
	return &Parser[M, P]{format: f, opts: f.opts.with(opts)}
}

// NewReader returns a reader with no source. opts are applied after the
// format's options.
func (f *Format[M, P]) NewReader(opts ...Option) *Reader[M, P] {
	return &Reader[M, P]{format: f, opts: f.opts.with(opts)}
}

// Parse decodes the dataset at location with a fresh parser.
func (f *Format[M, P]) Parse(location string, opts ...Option) (M, error) {
	return f.NewParser(opts...).Parse(location)
}

// ParseHandle decodes the dataset in h with a fresh parser, which takes
// ownership of h.
func (f *Format[M, P]) ParseHandle(h SourceHandle, opts ...Option) (M, error) {
	return f.NewParser(opts...).ParseHandle(h)
}

// isNil reports whether m is nil or a typed nil pointer.
func isNil(m Metadata) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
