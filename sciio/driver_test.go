package sciio

import (
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"testing"
)

// The raw test format: "RAW1", then little-endian uint16 width, height and
// channels, a layout byte and a pixel type byte, then the payload.
const rawHeaderSize = 12

const (
	rawPlanarPlanes  = 0 // one plane per channel
	rawInterleaved   = 1 // channels inside each pixel
	rawPlanarChannel = 2 // channels as a planar axis of one plane
)

type rawMetadata struct {
	BaseMetadata
	Offset int64
}

type rawDriver struct {
	skipDimensions bool
}

func (rawDriver) Info() FormatInfo {
	return FormatInfo{Name: "RAW", Description: "test raw format", Suffixes: []string{"raw"}}
}

func (rawDriver) Detect(h SourceHandle) (bool, error) {
	// Move the handle to prove Format.Detect restores it.
	if _, err := h.Seek(2, io.SeekCurrent); err != nil {
		return false, err
	}
	magic := make([]byte, 4)
	n, _ := h.ReadAt(magic, 0)
	return n == 4 && string(magic) == "RAW1", nil
}

func (rawDriver) NewMetadata() *rawMetadata { return &rawMetadata{} }

func (d rawDriver) Decode(s *Session, m *rawMetadata) error {
	h := s.Handle()
	hdr := make([]byte, rawHeaderSize)
	if _, err := h.ReadAt(hdr, 0); err != nil {
		return DecodeError("read header", h.Location(), ErrTruncated)
	}
	if string(hdr[:4]) != "RAW1" {
		return DecodeError("read header", h.Location(), ErrNotRecognized)
	}
	if err := s.Advance(HeaderRead); err != nil {
		return err
	}

	w := int64(binary.LittleEndian.Uint16(hdr[4:]))
	ht := int64(binary.LittleEndian.Uint16(hdr[6:]))
	c := int64(binary.LittleEndian.Uint16(hdr[8:]))
	cfg := ImageConfig{
		Name:         "raw",
		PixelType:    PixelType(hdr[11]),
		LittleEndian: true,
	}
	switch hdr[10] {
	case rawInterleaved:
		cfg.Axes = []Axis{{AxisChannel, "", c}, {AxisX, "", w}, {AxisY, "", ht}}
		cfg.InterleavedAxisCount = 1
	case rawPlanarChannel:
		cfg.Axes = []Axis{{AxisX, "", w}, {AxisY, "", ht}, {AxisChannel, "", c}}
		cfg.PlanarAxisCount = 3
	default:
		cfg.Axes = []Axis{{AxisX, "", w}, {AxisY, "", ht}, {AxisChannel, "", c}}
	}
	img, err := NewImage(cfg)
	if err != nil {
		return err
	}

	if !d.skipDimensions {
		if err := s.Advance(DimensionsResolved); err != nil {
			return err
		}
	}

	if h.Length()-rawHeaderSize < img.PayloadBytes() {
		return DecodeError("read payload", h.Location(), ErrTruncated)
	}
	if err := s.Advance(PayloadAcquired); err != nil {
		return err
	}
	m.Offset = rawHeaderSize
	return m.AddImage(img)
}

func (rawDriver) NewPlane(img *ImageMetadata, region Region, buf []byte) *BytePlane {
	return NewBytePlane(img, region, buf)
}

func (rawDriver) ReadPlane(m *rawMetadata, req PlaneRequest, p *BytePlane) error {
	h := req.Source
	if _, err := h.Seek(m.Offset+req.PlaneIndex*req.Image.PlaneBytes(), io.SeekStart); err != nil {
		return err
	}
	return ReadRegion(h, req.Image, req.Region, 0, p.Bytes())
}

// rawFile builds a raw dataset whose payload byte i is byte(i).
func rawFile(w, h, c int, mode byte, pt PixelType) (file, payload []byte) {
	hdr := make([]byte, rawHeaderSize)
	copy(hdr, "RAW1")
	binary.LittleEndian.PutUint16(hdr[4:], uint16(w))
	binary.LittleEndian.PutUint16(hdr[6:], uint16(h))
	binary.LittleEndian.PutUint16(hdr[8:], uint16(c))
	hdr[10] = mode
	hdr[11] = byte(pt)

	payload = make([]byte, w*h*c*pt.Bytes())
	for i := range payload {
		payload[i] = byte(i)
	}
	return append(hdr, payload...), payload
}

// tracker is an opener over in-memory files that records every handle.
type tracker struct {
	files  map[string][]byte
	opened []*Handle
	opens  map[string]int
}

func newTracker(files map[string][]byte) *tracker {
	return &tracker{files: files, opens: make(map[string]int)}
}

func (t *tracker) open(location string) (SourceHandle, error) {
	data, ok := t.files[location]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: location, Err: fs.ErrNotExist}
	}
	h := NewBytesHandle(location, data)
	t.opened = append(t.opened, h)
	t.opens[location]++
	return h, nil
}

func (t *tracker) openHandles() int {
	n := 0
	for _, h := range t.opened {
		if !h.Closed() {
			n++
		}
	}
	return n
}

func newRawFormat(t *testing.T, tr *tracker, opts ...Option) *Format[*rawMetadata, *BytePlane] {
	t.Helper()
	return NewFormat[*rawMetadata, *BytePlane](rawDriver{}, append([]Option{WithOpener(tr.open)}, opts...)...)
}

func mustDecodeKind(t *testing.T, err error, sentinel error) {
	t.Helper()
	if !IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if sentinel != nil && !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
}
