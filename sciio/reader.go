package sciio

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-sciio/internal/layout"
)

// Reader serves plane reads from populated metadata. A Reader reads through
// its own source handle and is not safe for concurrent use; independent
// Readers are, including Readers sharing one populated Metadata.
type Reader[M Metadata, P Plane] struct {
	format  *Format[M, P]
	opts    options
	meta    M
	hasMeta bool
	src     SourceHandle
}

// Format returns the reader's format.
func (r *Reader[M, P]) Format() *Format[M, P] { return r.format }

// Metadata returns the bound metadata.
func (r *Reader[M, P]) Metadata() (M, bool) { return r.meta, r.hasMeta }

// Source returns the handle planes are read from, or nil.
func (r *Reader[M, P]) Source() SourceHandle { return r.src }

// SetSource binds the reader to the dataset at location. If the current
// metadata was decoded from location the reader's handle is rewound, or
// reopened after Close(true). Any other location closes the current dataset
// and is parsed anew.
func (r *Reader[M, P]) SetSource(location string) error {
	if r.hasMeta {
		b := r.meta.base()
		if b.Uses(location) {
			if isOpen(r.src) {
				if _, err := r.src.Seek(0, io.SeekStart); err != nil {
					return IOError("set source", b.sourceLocation, err)
				}
				return nil
			}
			h, err := r.openSource(b)
			if err == nil {
				r.src = h
				return nil
			}
			r.opts.log().Debug("reopening source failed, parsing anew",
				zap.String("location", b.sourceLocation), zap.Error(err))
		}
		if err := r.Close(false); err != nil {
			r.opts.log().Warn("closing previous source", zap.Error(err))
		}
	}

	m, err := r.newParser().Parse(location)
	if err != nil {
		return err
	}
	r.meta, r.hasMeta, r.src = m, true, m.Source()
	return nil
}

// SetSourceHandle binds the reader to h and takes ownership of it. A handle
// at the current payload location replaces the reader's handle; anything
// else closes the current dataset and is parsed.
func (r *Reader[M, P]) SetSourceHandle(h SourceHandle) error {
	if r.hasMeta {
		b := r.meta.base()
		if h.Location() == b.sourceLocation && !b.decoded {
			if r.src != nil && r.src != h {
				if err := r.src.Close(); err != nil {
					r.opts.log().Warn("closing previous source", zap.Error(err))
				}
			}
			r.src = h
			if _, err := h.Seek(0, io.SeekStart); err != nil {
				return IOError("set source", h.Location(), err)
			}
			return nil
		}
		if err := r.Close(false); err != nil {
			r.opts.log().Warn("closing previous source", zap.Error(err))
		}
	}

	m, err := r.newParser().ParseHandle(h)
	if err != nil {
		return err
	}
	r.meta, r.hasMeta, r.src = m, true, m.Source()
	return nil
}

// SetMetadata binds populated metadata that may be shared with other
// readers. The reader opens its own handle on the payload and leaves m and
// its handle untouched; the caller keeps ownership of m.
func (r *Reader[M, P]) SetMetadata(m M) error {
	if isNil(m) || !m.Frozen() {
		return DecodeError("set metadata", "", fmt.Errorf("%w: metadata is not populated", ErrNoSource))
	}
	if r.hasMeta && any(r.meta) == any(m) && isOpen(r.src) {
		return nil
	}
	b := m.base()
	h, err := r.openSource(b)
	if err != nil {
		return IOError("set metadata", b.sourceLocation, err)
	}
	if err := r.Close(false); err != nil {
		r.opts.log().Warn("closing previous source", zap.Error(err))
	}
	r.meta, r.hasMeta, r.src = m, true, h
	return nil
}

// openSource returns a new handle on the payload of b. In-memory payloads
// are cloned; others are reopened through the opener. A decoded payload
// whose handle was closed cannot be reopened.
func (r *Reader[M, P]) openSource(b *BaseMetadata) (SourceHandle, error) {
	if mh, ok := b.source.(*Handle); ok {
		if h, ok := mh.Clone(); ok {
			return h, nil
		}
	}
	if b.decoded {
		return nil, fmt.Errorf("%w: decoded payload of %s was released", ErrNoSource, b.sourceLocation)
	}
	return r.opts.opener(b.sourceLocation)
}

// ImageCount returns the number of images, or 0 without metadata.
func (r *Reader[M, P]) ImageCount() int {
	if !r.hasMeta {
		return 0
	}
	return r.meta.ImageCount()
}

// PlaneCount returns the number of planes in image i.
func (r *Reader[M, P]) PlaneCount(i int) (int64, error) {
	if !r.hasMeta {
		return 0, DecodeError("plane count", "", ErrNoSource)
	}
	img, err := r.meta.Image(i)
	if err != nil {
		return 0, DecodeError("plane count", r.meta.SourceLocation(), err)
	}
	return img.PlaneCount(), nil
}

// OpenPlane reads one plane, or the region of it selected by WithRegion.
func (r *Reader[M, P]) OpenPlane(imageIndex int, planeIndex int64, opts ...PlaneOption) (P, error) {
	const op = "open plane"
	var zero P
	if !r.hasMeta {
		return zero, DecodeError(op, "", ErrNoSource)
	}
	loc := r.meta.SourceLocation()

	img, err := r.meta.Image(imageIndex)
	if err != nil {
		return zero, DecodeError(op, loc, err)
	}
	if planeIndex < 0 || planeIndex >= img.PlaneCount() {
		return zero, DecodeError(op, loc, fmt.Errorf("%w: plane %d of %d in image %d",
			ErrIndexOutOfRange, planeIndex, img.PlaneCount(), imageIndex))
	}

	var po planeOptions
	for _, opt := range opts {
		opt(&po)
	}
	region := FullRegion(img)
	if po.region != nil {
		region = *po.region
	}
	if err := region.Validate(img); err != nil {
		return zero, DecodeError(op, loc, err)
	}

	size, err := region.Bytes(img)
	if err != nil || size > r.opts.maxReadBytes {
		return zero, DecodeError(op, loc, fmt.Errorf(
			"%w: region of %v needs more than %d bytes; open it in tiles of %dx%d",
			ErrPlaneTooLarge, region.Lengths, r.opts.maxReadBytes, img.OptimalTileWidth(), img.OptimalTileHeight()))
	}

	buf := po.buf
	if buf != nil {
		if int64(len(buf)) < size {
			return zero, DecodeError(op, loc, fmt.Errorf("%w: have %d bytes, need %d", ErrBufferTooSmall, len(buf), size))
		}
		buf = buf[:size]
	} else {
		buf = make([]byte, size)
	}

	if !isOpen(r.src) {
		return zero, DecodeError(op, loc, ErrNoSource)
	}

	p := r.format.driver.NewPlane(img, region, buf)
	req := PlaneRequest{
		ImageIndex: imageIndex,
		PlaneIndex: planeIndex,
		Image:      img,
		Region:     region.Clone(),
		Source:     r.src,
	}
	if err := r.format.driver.ReadPlane(r.meta, req, p); err != nil {
		return zero, IOError(op, loc, err)
	}
	return p, nil
}

// Close releases the reader's handle. Unless fileOnly is set the reader
// drops its metadata as well. The metadata itself is not modified, so other
// readers sharing it are unaffected.
func (r *Reader[M, P]) Close(fileOnly bool) error {
	var err error
	if r.src != nil {
		err = r.src.Close()
		r.src = nil
	}
	if !fileOnly {
		var zero M
		r.meta, r.hasMeta = zero, false
	}
	return err
}

func (r *Reader[M, P]) newParser() *Parser[M, P] {
	return &Parser[M, P]{format: r.format, opts: r.opts}
}

// ReadRegion reads region of the plane starting at the current position of
// h into dst, which must be exactly the region size. The bytes keep the
// storage order of the planar axes. scanlinePad is the number of unused
// pixels stored after every row of the first axis after the interleaved
// ones.
func ReadRegion(h SourceHandle, img *ImageMetadata, region Region, scanlinePad int64, dst []byte) error {
	const op = "read region"
	loc := h.Location()

	if err := region.Validate(img); err != nil {
		return DecodeError(op, loc, err)
	}

	_, err := layout.Read(h, img.Geometry(scanlinePad), layout.Region{Offsets: region.Offsets, Lengths: region.Lengths}, dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, layout.ErrInvalidGeometry),
		errors.Is(err, layout.ErrOutOfBounds),
		errors.Is(err, layout.ErrPartialInterleaved),
		errors.Is(err, layout.ErrOverflow),
		errors.Is(err, layout.ErrNotApplicable),
		errors.Is(err, layout.ErrDestinationSize):
		return DecodeError(op, loc, err)
	default:
		return IOError(op, loc, err)
	}
}
