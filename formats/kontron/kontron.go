// Package kontron decodes Kontron IMCO images: a 128-byte header holding a
// six-byte signature and the image size, followed by one 8-bit plane.
package kontron

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-sciio/sciio"
)

// Name is the registered format name.
const Name = "Kontron"

// HeaderBytes is the size of the fixed header.
const HeaderBytes = 128

// Magic is the signature at the start of every file.
var Magic = []byte{0x01, 0x00, 0x47, 0x12, 0x6D, 0xB0}

// Metadata is a decoded Kontron image.
type Metadata struct {
	sciio.BaseMetadata

	Width  int
	Height int
}

type driver struct{}

// New returns the Kontron format.
func New(opts ...sciio.Option) *sciio.Format[*Metadata, *sciio.BytePlane] {
	return sciio.NewFormat[*Metadata, *sciio.BytePlane](driver{}, opts...)
}

func (driver) Info() sciio.FormatInfo {
	return sciio.FormatInfo{
		Name:        Name,
		Description: "Kontron IMCO",
		Suffixes:    []string{"img"},
	}
}

// Detect reports whether h starts with the signature. Shorter inputs are
// not Kontron files.
func (driver) Detect(h sciio.SourceHandle) (bool, error) {
	buf := make([]byte, len(Magic))
	n, err := h.ReadAt(buf, 0)
	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return false, nil
	}
	return bytes.Equal(buf, Magic), nil
}

func (driver) NewMetadata() *Metadata { return &Metadata{} }

// Decode reads the image size from the header. The signature is not
// checked again; detection has already matched it.
func (driver) Decode(s *sciio.Session, m *Metadata) error {
	h := s.Handle()
	loc := h.Location()

	hdr := make([]byte, HeaderBytes)
	if _, err := h.ReadAt(hdr, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return sciio.DecodeError("read header", loc,
				fmt.Errorf("%w: header needs %d bytes, file has %d", sciio.ErrTruncated, HeaderBytes, h.Length()))
		}
		return sciio.IOError("read header", loc, err)
	}
	if !bytes.Equal(hdr[:len(Magic)], Magic) {
		s.Logger().Debug("signature mismatch", zap.Binary("signature", hdr[:len(Magic)]))
	}
	if err := s.Advance(sciio.HeaderRead); err != nil {
		return err
	}

	m.Width = int(binary.LittleEndian.Uint16(hdr[6:]))
	m.Height = int(binary.LittleEndian.Uint16(hdr[8:]))
	img, err := sciio.NewImage(sciio.ImageConfig{
		Name: filepath.Base(loc),
		Axes: []sciio.Axis{
			{Type: sciio.AxisX, Length: int64(m.Width)},
			{Type: sciio.AxisY, Length: int64(m.Height)},
		},
		PixelType:    sciio.Uint8,
		LittleEndian: true,
	})
	if err != nil {
		return sciio.DecodeError("resolve dimensions", loc, err)
	}
	if err := s.Advance(sciio.DimensionsResolved); err != nil {
		return err
	}

	if have := h.Length() - HeaderBytes; have < img.PayloadBytes() {
		return sciio.DecodeError("read payload", loc,
			fmt.Errorf("%w: %d bytes after the header, need %d", sciio.ErrTruncated, have, img.PayloadBytes()))
	}
	if err := s.Advance(sciio.PayloadAcquired); err != nil {
		return err
	}

	if err := m.SetDatasetName(strings.TrimSuffix(filepath.Base(loc), filepath.Ext(loc))); err != nil {
		return err
	}
	return m.AddImage(img)
}

func (driver) NewPlane(img *sciio.ImageMetadata, region sciio.Region, buf []byte) *sciio.BytePlane {
	return sciio.NewBytePlane(img, region, buf)
}

func (driver) ReadPlane(m *Metadata, req sciio.PlaneRequest, p *sciio.BytePlane) error {
	h := req.Source
	if _, err := h.Seek(HeaderBytes, io.SeekStart); err != nil {
		return err
	}
	return sciio.ReadRegion(h, req.Image, req.Region, 0, p.Bytes())
}
