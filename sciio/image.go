package sciio

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/robert-malhotra/go-sciio/internal/layout"
)

// tileBudget is the byte target used for tile size hints.
const tileBudget = 1 << 20

// ImageConfig describes an image to NewImage.
type ImageConfig struct {
	Name         string
	Axes         []Axis // storage order, fastest varying first
	PixelType    PixelType
	LittleEndian bool

	// InterleavedAxisCount is the number of leading axes stored inside each
	// pixel. X and Y come after them.
	InterleavedAxisCount int

	// PlanarAxisCount is the number of leading axes that make up one plane.
	// It must cover X and Y. Zero means the fewest axes that do, and at
	// least InterleavedAxisCount+2.
	PlanarAxisCount int

	Table map[string]string
}

// ImageMetadata is the structural description of one image. It is read-only
// once built.
type ImageMetadata struct {
	name         string
	axes         []Axis
	pixelType    PixelType
	littleEndian bool
	interleaved  int
	planar       int
	table        map[string]string

	finalized    bool
	orderCertain bool
	planeCount   int64
	planeBytes   int64
}

// NewImage validates cfg and builds an ImageMetadata.
func NewImage(cfg ImageConfig) (*ImageMetadata, error) {
	if !cfg.PixelType.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelType, cfg.PixelType)
	}
	var xs, ys int
	xi, yi := -1, -1
	for i, a := range cfg.Axes {
		if a.Length < 1 {
			return nil, fmt.Errorf("%w: axis %d (%s) has length %d", ErrInvalidImage, i, a.Name(), a.Length)
		}
		switch a.Type {
		case AxisX:
			xs, xi = xs+1, i
		case AxisY:
			ys, yi = ys+1, i
		}
	}
	if xs != 1 || ys != 1 {
		return nil, fmt.Errorf("%w: need exactly one X and one Y axis, have %d and %d", ErrInvalidImage, xs, ys)
	}

	interleaved := cfg.InterleavedAxisCount
	planar := cfg.PlanarAxisCount
	if planar == 0 {
		planar = max(interleaved+2, max(xi, yi)+1)
	}
	if interleaved < 0 || planar < interleaved+2 || planar > len(cfg.Axes) {
		return nil, fmt.Errorf("%w: %d interleaved and %d planar axes out of %d",
			ErrInvalidImage, interleaved, planar, len(cfg.Axes))
	}
	if min(xi, yi) < interleaved || max(xi, yi) >= planar {
		return nil, fmt.Errorf("%w: X at %d and Y at %d must lie in planar axes [%d, %d)",
			ErrUnsupportedLayout, xi, yi, interleaved, planar)
	}

	img := &ImageMetadata{
		name:         cfg.Name,
		axes:         append([]Axis(nil), cfg.Axes...),
		pixelType:    cfg.PixelType,
		littleEndian: cfg.LittleEndian,
		interleaved:  interleaved,
		planar:       planar,
		table:        make(map[string]string, len(cfg.Table)),
	}
	for k, v := range cfg.Table {
		img.table[k] = v
	}
	return img, nil
}

// finalize computes the derived fields. It fails if the payload size does
// not fit in an int64.
func (m *ImageMetadata) finalize() error {
	if m.finalized {
		return nil
	}
	count, err := product(m.axes[m.planar:], 1)
	if err != nil {
		return fmt.Errorf("image %q plane count: %w", m.name, err)
	}
	size, err := product(m.axes[:m.planar], int64(m.pixelType.Bytes()))
	if err != nil {
		return fmt.Errorf("image %q plane size: %w", m.name, err)
	}
	if _, err := mulInt64(count, size); err != nil {
		return fmt.Errorf("image %q payload size: %w", m.name, err)
	}

	m.orderCertain = true
	for _, a := range m.axes {
		if a.Type == AxisUnknown {
			m.orderCertain = false
		}
	}
	m.planeCount = count
	m.planeBytes = size
	m.finalized = true
	return nil
}

// Name returns the image name.
func (m *ImageMetadata) Name() string { return m.name }

// Axes returns a copy of the axes in storage order.
func (m *ImageMetadata) Axes() []Axis {
	return append([]Axis(nil), m.axes...)
}

// AxisCount returns the number of axes.
func (m *ImageMetadata) AxisCount() int { return len(m.axes) }

// AxisIndex returns the position of the first axis of type t, or -1.
func (m *ImageMetadata) AxisIndex(t AxisType) int {
	for i, a := range m.axes {
		if a.Type == t {
			return i
		}
	}
	return -1
}

// AxisLength returns the length of the first axis of type t, or 1 if the
// image has no such axis.
func (m *ImageMetadata) AxisLength(t AxisType) int64 {
	if i := m.AxisIndex(t); i >= 0 {
		return m.axes[i].Length
	}
	return 1
}

func (m *ImageMetadata) PixelType() PixelType { return m.pixelType }
func (m *ImageMetadata) LittleEndian() bool   { return m.littleEndian }

// ByteOrder returns the byte order of multi-byte samples.
func (m *ImageMetadata) ByteOrder() binary.ByteOrder {
	if m.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (m *ImageMetadata) InterleavedAxisCount() int { return m.interleaved }
func (m *ImageMetadata) PlanarAxisCount() int      { return m.planar }

// IsInterleaved reports whether any axis is stored inside each pixel.
func (m *ImageMetadata) IsInterleaved() bool { return m.interleaved > 0 }

// IsMultichannel reports whether the image has more than one channel.
func (m *ImageMetadata) IsMultichannel() bool { return m.AxisLength(AxisChannel) > 1 }

// OrderCertain reports whether every axis has a known type. It is set when
// the image is finalized by a parser.
func (m *ImageMetadata) OrderCertain() bool { return m.orderCertain }

// PlanarLengths returns the lengths of the axes forming one plane.
func (m *ImageMetadata) PlanarLengths() []int64 {
	out := make([]int64, m.planar)
	for i := range out {
		out[i] = m.axes[i].Length
	}
	return out
}

// PlaneCount returns the number of planes in the image.
func (m *ImageMetadata) PlaneCount() int64 {
	if m.finalized {
		return m.planeCount
	}
	n, _ := product(m.axes[m.planar:], 1)
	return n
}

// PlaneBytes returns the packed size of one full plane.
func (m *ImageMetadata) PlaneBytes() int64 {
	if m.finalized {
		return m.planeBytes
	}
	n, _ := product(m.axes[:m.planar], int64(m.pixelType.Bytes()))
	return n
}

// PayloadBytes returns the packed size of all planes.
func (m *ImageMetadata) PayloadBytes() int64 {
	n, _ := mulInt64(m.PlaneCount(), m.PlaneBytes())
	return n
}

// PlanePosition returns the coordinates along the non-planar axes of the
// plane with the given index. The first non-planar axis varies fastest.
func (m *ImageMetadata) PlanePosition(planeIndex int64) ([]int64, error) {
	if planeIndex < 0 || planeIndex >= m.PlaneCount() {
		return nil, fmt.Errorf("%w: plane %d of %d", ErrIndexOutOfRange, planeIndex, m.PlaneCount())
	}
	outer := m.axes[m.planar:]
	pos := make([]int64, len(outer))
	for i, a := range outer {
		pos[i] = planeIndex % a.Length
		planeIndex /= a.Length
	}
	return pos, nil
}

// Table returns a copy of the raw key/values recorded for this image.
func (m *ImageMetadata) Table() map[string]string {
	out := make(map[string]string, len(m.table))
	for k, v := range m.table {
		out[k] = v
	}
	return out
}

// OptimalTileWidth returns the suggested tile width for region reads.
func (m *ImageMetadata) OptimalTileWidth() int64 {
	return m.AxisLength(AxisX)
}

// OptimalTileHeight returns the number of full-width rows that fit in about
// one mebibyte, at least one and at most the image height.
func (m *ImageMetadata) OptimalTileHeight() int64 {
	height := m.AxisLength(AxisY)
	row := m.PlaneBytes() / height
	if row <= 0 {
		return height
	}
	h := int64(tileBudget) / row
	return max(1, min(h, height))
}

// Geometry returns the storage geometry of one plane. The first two axes
// after the interleaved ones are the row and column axes of the geometry,
// whatever their types, so a plane is always read in storage order.
func (m *ImageMetadata) Geometry(scanlinePad int64) layout.Geometry {
	xi := m.interleaved
	g := layout.Geometry{
		SampleBytes: int64(m.pixelType.Bytes()),
		Width:       m.axes[xi].Length,
		Height:      m.axes[xi+1].Length,
		ScanlinePad: scanlinePad,
	}
	for _, a := range m.axes[:xi] {
		g.Interleaved = append(g.Interleaved, a.Length)
	}
	for _, a := range m.axes[xi+2 : m.planar] {
		g.Outer = append(g.Outer, a.Length)
	}
	return g
}

func product(axes []Axis, start int64) (int64, error) {
	n := start
	var err error
	for _, a := range axes {
		if n, err = mulInt64(n, a.Length); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// mulInt64 multiplies two non-negative values, failing on overflow.
func mulInt64(a, b int64) (int64, error) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, layout.ErrOverflow
	}
	return int64(lo), nil
}
