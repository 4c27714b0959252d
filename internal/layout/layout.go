package layout

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Errors
var (
	ErrInvalidGeometry    = errors.New("invalid plane geometry")
	ErrOutOfBounds        = errors.New("region out of bounds")
	ErrPartialInterleaved = errors.New("interleaved axes must be read at full extent")
	ErrOverflow           = errors.New("size overflows int64")
	ErrNotApplicable      = errors.New("strategy not applicable to region")
	ErrDestinationSize    = errors.New("destination size does not match region")
)

// Strategy identifies how a region is turned into skip/read operations.
type Strategy int

const (
	WholePlane Strategy = iota
	WholeRows
	Tiled
)

func (s Strategy) String() string {
	switch s {
	case WholePlane:
		return "whole-plane"
	case WholeRows:
		return "whole-rows"
	case Tiled:
		return "tiled"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Geometry describes how one plane is stored.
type Geometry struct {
	SampleBytes int64   // bytes per sample
	Interleaved []int64 // lengths of axes stored inside each pixel, fastest first
	Width       int64   // pixels per row
	Height      int64   // rows per block
	Outer       []int64 // lengths of planar axes stored as whole blocks
	ScanlinePad int64   // extra pixels stored at the end of every row
}

// Region selects a sub-region of a plane. Offsets and Lengths hold one entry
// per planar axis in the order interleaved, row, column, outer.
type Region struct {
	Offsets []int64
	Lengths []int64
}

// Op is one step against a sequential source: skip Skip bytes, then read
// Read bytes into the next part of the destination.
type Op struct {
	Skip int64
	Read int64
}

// AxisError reports a region check failure on a specific planar axis.
type AxisError struct {
	Axis   int
	Offset int64
	Length int64
	Size   int64
	Err    error
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("axis %d: offset %d length %d outside [0, %d): %v",
		e.Axis, e.Offset, e.Length, e.Size, e.Err)
}

func (e *AxisError) Unwrap() error {
	return e.Err
}

// Rank returns the number of planar axes.
func (g Geometry) Rank() int {
	return len(g.Interleaved) + 2 + len(g.Outer)
}

// Lengths returns the planar axis lengths in region order.
func (g Geometry) Lengths() []int64 {
	out := make([]int64, 0, g.Rank())
	out = append(out, g.Interleaved...)
	out = append(out, g.Width, g.Height)
	out = append(out, g.Outer...)
	return out
}

// Full returns the region covering the whole plane.
func (g Geometry) Full() Region {
	lengths := g.Lengths()
	return Region{
		Offsets: make([]int64, len(lengths)),
		Lengths: lengths,
	}
}

// Validate checks that every extent is positive and that the stored plane
// size fits in an int64.
func (g Geometry) Validate() error {
	if g.SampleBytes < 1 {
		return fmt.Errorf("%w: sample width %d", ErrInvalidGeometry, g.SampleBytes)
	}
	if g.ScanlinePad < 0 {
		return fmt.Errorf("%w: negative scanline pad %d", ErrInvalidGeometry, g.ScanlinePad)
	}
	for i, n := range g.Lengths() {
		if n < 1 {
			return fmt.Errorf("%w: axis %d has length %d", ErrInvalidGeometry, i, n)
		}
	}
	_, err := g.PlaneBytes()
	return err
}

// PixelBytes returns the bytes used by one pixel including all interleaved samples.
func (g Geometry) PixelBytes() (int64, error) {
	n := g.SampleBytes
	var err error
	for _, l := range g.Interleaved {
		if n, err = mul(n, l); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// RowBytes returns the stored size of one row, padding included.
func (g Geometry) RowBytes() (int64, error) {
	px, err := g.PixelBytes()
	if err != nil {
		return 0, err
	}
	return mul(g.Width+g.ScanlinePad, px)
}

// BlockBytes returns the stored size of one X×Y block.
func (g Geometry) BlockBytes() (int64, error) {
	row, err := g.RowBytes()
	if err != nil {
		return 0, err
	}
	return mul(row, g.Height)
}

// PlaneBytes returns the stored size of the whole plane.
func (g Geometry) PlaneBytes() (int64, error) {
	n, err := g.BlockBytes()
	if err != nil {
		return 0, err
	}
	for _, l := range g.Outer {
		if n, err = mul(n, l); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// RegionBytes returns the packed size of the region.
func (g Geometry) RegionBytes(r Region) (int64, error) {
	if len(r.Lengths) != g.Rank() {
		return 0, fmt.Errorf("%w: region has %d axes, plane has %d", ErrOutOfBounds, len(r.Lengths), g.Rank())
	}
	n := g.SampleBytes
	var err error
	for _, l := range r.Lengths {
		if n, err = mul(n, l); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Check validates r against the geometry.
func (g Geometry) Check(r Region) error {
	sizes := g.Lengths()
	if len(r.Offsets) != len(sizes) || len(r.Lengths) != len(sizes) {
		return fmt.Errorf("%w: region has %d offsets and %d lengths, plane has %d axes",
			ErrOutOfBounds, len(r.Offsets), len(r.Lengths), len(sizes))
	}
	for i, size := range sizes {
		off, n := r.Offsets[i], r.Lengths[i]
		if off < 0 || off >= size || n < 1 || n > size-off {
			return &AxisError{Axis: i, Offset: off, Length: n, Size: size, Err: ErrOutOfBounds}
		}
		if i < len(g.Interleaved) && (off != 0 || n != size) {
			return &AxisError{Axis: i, Offset: off, Length: n, Size: size, Err: ErrPartialInterleaved}
		}
	}
	return nil
}

// Applicable reports whether strategy s can serve region r.
// Regions of the wrong rank are never applicable.
func (g Geometry) Applicable(r Region, s Strategy) bool {
	if len(r.Offsets) != g.Rank() || len(r.Lengths) != g.Rank() {
		return false
	}
	switch s {
	case WholePlane:
		return g.ScanlinePad == 0 && g.fullExcept(r, -1)
	case WholeRows:
		return g.ScanlinePad == 0 && g.fullExcept(r, g.yAxis())
	case Tiled:
		return true
	default:
		return false
	}
}

// Plan validates r and returns the operations of the first applicable
// strategy in priority order.
func Plan(g Geometry, r Region) (Strategy, []Op, error) {
	if err := g.Validate(); err != nil {
		return Tiled, nil, err
	}
	if err := g.Check(r); err != nil {
		return Tiled, nil, err
	}
	for _, s := range []Strategy{WholePlane, WholeRows, Tiled} {
		if g.Applicable(r, s) {
			ops, err := PlanStrategy(g, r, s)
			return s, ops, err
		}
	}
	return Tiled, nil, ErrNotApplicable
}

// PlanStrategy returns the operations strategy s would issue for region r.
func PlanStrategy(g Geometry, r Region, s Strategy) ([]Op, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := g.Check(r); err != nil {
		return nil, err
	}
	if !g.Applicable(r, s) {
		return nil, fmt.Errorf("%w: %s", ErrNotApplicable, s)
	}

	// PlaneBytes succeeded in Validate, so every offset below fits in int64.
	px, _ := g.PixelBytes()
	rowBytes, _ := g.RowBytes()
	blockBytes, _ := g.BlockBytes()

	var p planner
	switch s {
	case WholePlane:
		total, _ := g.PlaneBytes()
		p.read(0, total)

	case WholeRows:
		// Interleaved images have a single block, giving one skip and one read.
		y, h := r.Offsets[g.yAxis()], r.Lengths[g.yAxis()]
		blocks := product(g.Outer)
		for b := int64(0); b < blocks; b++ {
			p.read(b*blockBytes+y*rowBytes, h*rowBytes)
		}

	case Tiled:
		xi, yi := g.xAxis(), g.yAxis()
		x, w := r.Offsets[xi], r.Lengths[xi]
		y, h := r.Offsets[yi], r.Lengths[yi]
		outerOff := r.Offsets[yi+1:]
		outerLen := r.Lengths[yi+1:]
		forEachBlock(g.Outer, outerOff, outerLen, func(block int64) {
			base := block * blockBytes
			for row := y; row < y+h; row++ {
				p.read(base+row*rowBytes+x*px, w*px)
			}
		})
	}
	return p.ops, nil
}

func (g Geometry) xAxis() int { return len(g.Interleaved) }
func (g Geometry) yAxis() int { return len(g.Interleaved) + 1 }

// fullExcept reports whether every axis other than skip is at full extent.
func (g Geometry) fullExcept(r Region, skip int) bool {
	for i, size := range g.Lengths() {
		if i == skip {
			continue
		}
		if r.Offsets[i] != 0 || r.Lengths[i] != size {
			return false
		}
	}
	return true
}

type planner struct {
	ops    []Op
	cursor int64
}

// read appends an op reading n bytes at absolute plane offset at.
func (p *planner) read(at, n int64) {
	p.ops = append(p.ops, Op{Skip: at - p.cursor, Read: n})
	p.cursor = at + n
}

// forEachBlock calls fn with the linear index of every selected outer block,
// in storage order (first outer axis fastest).
func forEachBlock(dims, offsets, lengths []int64, fn func(block int64)) {
	if len(dims) == 0 {
		fn(0)
		return
	}
	idx := make([]int64, len(dims))
	copy(idx, offsets)
	for {
		var linear, stride int64 = 0, 1
		for k, d := range dims {
			linear += idx[k] * stride
			stride *= d
		}
		fn(linear)

		k := 0
		for ; k < len(dims); k++ {
			idx[k]++
			if idx[k] < offsets[k]+lengths[k] {
				break
			}
			idx[k] = offsets[k]
		}
		if k == len(dims) {
			return
		}
	}
}

func product(v []int64) int64 {
	n := int64(1)
	for _, x := range v {
		n *= x
	}
	return n
}

// mul multiplies two non-negative values, failing on int64 overflow.
func mul(a, b int64) (int64, error) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(lo), nil
}
