package ics

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/robert-malhotra/go-sciio/sciio"
)

// Name is the registered format name.
const Name = "ICS"

// probeLen is the length of the header prefix that identifies version 2.
const probeLen = 17

// detectLen bounds the bytes Detect inspects.
const detectLen = 256

// Dimension is one positional pair of the sizes and order keys.
type Dimension struct {
	Token  string
	Length int64
}

// Metadata is a decoded ICS dataset.
type Metadata struct {
	sciio.BaseMetadata

	Version    int // 1 with a companion payload file, 2 single file
	HeaderPath string
	DataPath   string

	Dimensions  []Dimension // sizes/order pairs in header order, bits excluded
	Bits        int         // sample width before rounding to whole bytes
	Interleaved bool        // ch precedes x in the order key

	Compression         string
	CompressionBypassed bool
	PayloadOffset       int64 // first payload byte in the source
}

type driver struct{}

// New returns the ICS format.
func New(opts ...sciio.Option) *sciio.Format[*Metadata, *sciio.BytePlane] {
	return sciio.NewFormat[*Metadata, *sciio.BytePlane](driver{}, opts...)
}

func (driver) Info() sciio.FormatInfo {
	return sciio.FormatInfo{
		Name:        Name,
		Description: "Image Cytometry Standard",
		Suffixes:    []string{"ics", "ids"},
	}
}

// Detect matches a header whose first key is ics_version. Payload files
// carry no signature and are matched by suffix.
func (driver) Detect(h sciio.SourceHandle) (bool, error) {
	buf := make([]byte, detectLen)
	n, err := h.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	lines := strings.SplitN(string(buf[:n]), "\n", 4)
	for i, line := range lines {
		if i == 3 {
			break
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0] == "ics_version", nil
		}
	}
	return false, nil
}

func (driver) NewMetadata() *Metadata { return &Metadata{} }

func (driver) NewPlane(img *sciio.ImageMetadata, region sciio.Region, buf []byte) *sciio.BytePlane {
	return sciio.NewBytePlane(img, region, buf)
}

func (driver) ReadPlane(m *Metadata, req sciio.PlaneRequest, p *sciio.BytePlane) error {
	h := req.Source
	off := m.PayloadOffset + req.PlaneIndex*req.Image.PlaneBytes()
	if _, err := h.Seek(off, io.SeekStart); err != nil {
		return err
	}
	return sciio.ReadRegion(h, req.Image, req.Region, 0, p.Bytes())
}

// Companion returns the other file of a version 1 pair: the payload file of
// an .ics header or the header of an .ids payload. The character before the
// extension is shifted by one, so its case is kept. Other extensions have
// no companion.
func Companion(path string) (string, bool) {
	b := []byte(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ics":
		b[len(b)-2]++
	case ".ids":
		b[len(b)-2]--
	default:
		return "", false
	}
	return string(b), true
}

func isPayloadFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ids")
}
