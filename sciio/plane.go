package sciio

import (
	"fmt"

	"github.com/robert-malhotra/go-sciio/internal/dtype"
)

// Region selects a rectangular part of a plane with one offset and length
// per planar axis.
type Region struct {
	Offsets []int64
	Lengths []int64
}

// FullRegion returns the region covering a whole plane of img.
func FullRegion(img *ImageMetadata) Region {
	lengths := img.PlanarLengths()
	return Region{
		Offsets: make([]int64, len(lengths)),
		Lengths: lengths,
	}
}

// Clone returns a deep copy.
func (r Region) Clone() Region {
	return Region{
		Offsets: append([]int64(nil), r.Offsets...),
		Lengths: append([]int64(nil), r.Lengths...),
	}
}

// Validate checks r against the planar axes of img. Failures name the axis.
func (r Region) Validate(img *ImageMetadata) error {
	n := img.PlanarAxisCount()
	if len(r.Offsets) != n || len(r.Lengths) != n {
		return fmt.Errorf("%w: region has %d offsets and %d lengths, image has %d planar axes",
			ErrRegionOutOfBounds, len(r.Offsets), len(r.Lengths), n)
	}
	for i, a := range img.axes[:n] {
		off, l := r.Offsets[i], r.Lengths[i]
		if off < 0 || off >= a.Length {
			return fmt.Errorf("%w: axis %d (%s) offset %d outside [0, %d)",
				ErrRegionOutOfBounds, i, a.Name(), off, a.Length)
		}
		if l < 1 || l > a.Length-off {
			return fmt.Errorf("%w: axis %d (%s) length %d outside [1, %d]",
				ErrRegionOutOfBounds, i, a.Name(), l, a.Length-off)
		}
		if i < img.interleaved && (off != 0 || l != a.Length) {
			return fmt.Errorf("%w: interleaved axis %d (%s) must be read at full extent",
				ErrRegionOutOfBounds, i, a.Name())
		}
	}
	return nil
}

// Bytes returns the packed size of the region for img.
func (r Region) Bytes(img *ImageMetadata) (int64, error) {
	n := int64(img.PixelType().Bytes())
	var err error
	for _, l := range r.Lengths {
		if n, err = mulInt64(n, l); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Plane is a buffer of pixel data and the region it was read from. The
// bytes are packed in the storage order of the image's planar axes.
type Plane interface {
	Bytes() []byte
	Region() Region
	Image() *ImageMetadata
}

// BytePlane is a Plane backed by a byte slice.
type BytePlane struct {
	img    *ImageMetadata
	region Region
	data   []byte
}

// NewBytePlane returns a plane over buf.
func NewBytePlane(img *ImageMetadata, region Region, buf []byte) *BytePlane {
	return &BytePlane{img: img, region: region.Clone(), data: buf}
}

func (p *BytePlane) Bytes() []byte         { return p.data }
func (p *BytePlane) Region() Region        { return p.region.Clone() }
func (p *BytePlane) Image() *ImageMetadata { return p.img }

// Samples decodes the plane's bytes into one float64 per sample using the
// image's pixel type and byte order.
func Samples(p Plane) ([]float64, error) {
	img := p.Image()
	return dtype.Float64s(img.PixelType().sampleType(img.ByteOrder()), p.Bytes())
}
