package ics

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-sciio/internal/binary"
	"github.com/robert-malhotra/go-sciio/internal/filter"
	"github.com/robert-malhotra/go-sciio/internal/header"
	"github.com/robert-malhotra/go-sciio/sciio"
)

var syntax = header.Syntax{
	Markers: []string{"layout", "representation", "parameter", "history", "sensor"},
	End:     "end",
}

// Decode reads the header, resolves the image and locates its payload.
func (driver) Decode(s *sciio.Session, m *Metadata) error {
	log := s.Logger()

	hdr, err := headerHandle(s)
	if err != nil {
		return err
	}
	m.HeaderPath = hdr.Location()

	if m.Version, err = probeVersion(hdr); err != nil {
		return err
	}
	table, end, err := readHeader(hdr, m.Version, log)
	if err != nil {
		return err
	}
	if err := s.Advance(sciio.HeaderRead); err != nil {
		return err
	}

	img, err := m.resolveImage(table, log)
	if err != nil {
		return sciio.DecodeError("resolve dimensions", m.HeaderPath, err)
	}
	if err := s.Advance(sciio.DimensionsResolved); err != nil {
		return err
	}

	data, offset, err := dataHandle(s, m, hdr, end)
	if err != nil {
		return err
	}
	m.DataPath = data.Location()
	m.Compression, _ = table.Get("compression")
	if err := m.acquirePayload(data, offset, img, log); err != nil {
		return err
	}
	if err := s.Advance(sciio.PayloadAcquired); err != nil {
		return err
	}

	name, ok := table.Get("filename")
	if !ok {
		name = strings.TrimSuffix(filepath.Base(m.HeaderPath), filepath.Ext(m.HeaderPath))
	}
	if err := m.SetDatasetName(name); err != nil {
		return err
	}
	if err := m.SetTable(table.Map()); err != nil {
		return err
	}
	if err := m.AddUsedFile(m.HeaderPath); err != nil {
		return err
	}
	if err := m.AddUsedFile(m.DataPath); err != nil {
		return err
	}
	return m.AddImage(img)
}

// headerHandle returns the handle holding the header, opening it when the
// session is bound to a payload file.
func headerHandle(s *sciio.Session) (sciio.SourceHandle, error) {
	bound := s.Handle()
	if !isPayloadFile(bound.Location()) {
		return bound, nil
	}
	path, _ := Companion(bound.Location())
	return openCompanion(s, path)
}

// dataHandle returns the handle holding the payload and the payload offset.
func dataHandle(s *sciio.Session, m *Metadata, hdr sciio.SourceHandle, end int64) (sciio.SourceHandle, int64, error) {
	if m.Version == 2 {
		return hdr, end, nil
	}
	if bound := s.Handle(); isPayloadFile(bound.Location()) {
		return bound, 0, nil
	}
	path, ok := Companion(m.HeaderPath)
	if !ok {
		return nil, 0, sciio.DecodeError("open companion", m.HeaderPath,
			fmt.Errorf("%w: %s has no .ics or .ids extension", sciio.ErrCompanionNotFound, m.HeaderPath))
	}
	h, err := openCompanion(s, path)
	return h, 0, err
}

func openCompanion(s *sciio.Session, path string) (sciio.SourceHandle, error) {
	h, err := s.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sciio.DecodeError("open companion", path,
			fmt.Errorf("%w: %s", sciio.ErrCompanionNotFound, path))
	}
	return h, err
}

// probeVersion reports 2 when the header starts with ics_version 2.0.
func probeVersion(h sciio.SourceHandle) (int, error) {
	buf := make([]byte, probeLen)
	n, err := h.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, sciio.IOError("probe version", h.Location(), err)
	}
	if strings.Join(strings.Fields(string(buf[:n])), " ") == "ics_version 2.0" {
		return 2, nil
	}
	return 1, nil
}

// readHeader parses the key/value table and returns the offset just past
// the end line.
func readHeader(h sciio.SourceHandle, version int, log *zap.Logger) (*header.Table, int64, error) {
	br := binary.NewReader(h, h.Length(), nil)
	res, err := header.Parse(br, syntax)
	if err != nil {
		if errors.Is(err, binary.ErrLineTooLong) {
			return nil, 0, sciio.DecodeError("read header", h.Location(), err)
		}
		return nil, 0, sciio.IOError("read header", h.Location(), err)
	}
	for _, p := range res.Problems {
		log.Warn("skipping malformed header line",
			zap.Int("line", p.Line), zap.String("text", p.Text), zap.String("reason", p.Reason))
	}
	if version == 2 && !res.Terminated {
		return nil, 0, sciio.DecodeError("read header", h.Location(),
			fmt.Errorf("%w: end", sciio.ErrMissingKey))
	}
	return res.Table, br.Pos(), nil
}

// resolveImage builds the image from the sizes, order, byte_order,
// significant_bits and format keys.
func (m *Metadata) resolveImage(table *header.Table, log *zap.Logger) (*sciio.ImageMetadata, error) {
	sizes, ok := table.Get("sizes")
	if !ok {
		return nil, fmt.Errorf("%w: sizes", sciio.ErrMissingKey)
	}
	order, ok := table.Get("order")
	if !ok {
		return nil, fmt.Errorf("%w: order", sciio.ErrMissingKey)
	}

	sizeTokens, orderTokens := strings.Fields(sizes), strings.Fields(order)
	if len(sizeTokens) != len(orderTokens) {
		log.Warn("sizes and order differ in length, extra entries ignored",
			zap.String("sizes", sizes), zap.String("order", order))
	}
	for i := range min(len(sizeTokens), len(orderTokens)) {
		v, err := strconv.ParseInt(sizeTokens[i], 10, 64)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: sizes entry %q for %s", sciio.ErrInvalidImage, sizeTokens[i], orderTokens[i])
		}
		if orderTokens[i] == "bits" {
			m.Bits = int(v)
			continue
		}
		m.Dimensions = append(m.Dimensions, Dimension{Token: orderTokens[i], Length: v})
	}
	bits := m.Bits
	if v, ok := table.Get("significant_bits"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: significant_bits %q", sciio.ErrUnsupportedPixelType, v)
		}
		bits = n
	}
	if bits < 1 {
		return nil, fmt.Errorf("%w: significant_bits or a bits entry in sizes", sciio.ErrMissingKey)
	}

	format, _ := table.Get("format")
	pt, packed, err := pixelType(format, bits)
	if err != nil {
		return nil, err
	}

	axes := buildAxes(m.Dimensions)
	if packed {
		if axes, err = unpackChannels(axes); err != nil {
			return nil, err
		}
	}
	xi, yi := axisIndex(axes, sciio.AxisX), axisIndex(axes, sciio.AxisY)
	m.Interleaved = axisIndex(axes, sciio.AxisChannel) < xi

	byteOrder, _ := table.Get("byte_order")
	little := littleEndian(byteOrder, log)
	if bits < 32 {
		little = !little
	}

	return sciio.NewImage(sciio.ImageConfig{
		Name:                 filepath.Base(m.HeaderPath),
		Axes:                 axes,
		PixelType:            pt,
		LittleEndian:         little,
		InterleavedAxisCount: min(xi, yi),
	})
}

func axisType(token string) sciio.AxisType {
	switch token {
	case "x":
		return sciio.AxisX
	case "y":
		return sciio.AxisY
	case "z":
		return sciio.AxisZ
	case "ch":
		return sciio.AxisChannel
	case "t":
		return sciio.AxisTime
	default:
		return sciio.AxisUnknown
	}
}

// buildAxes maps dimensions to axes in storage order and adds any missing
// X, Y, Z, Channel and Time axis with length 1. A missing X goes right
// before Y and a missing Y right after X.
func buildAxes(dims []Dimension) []sciio.Axis {
	axes := make([]sciio.Axis, 0, len(dims)+5)
	for _, d := range dims {
		a := sciio.Axis{Type: axisType(d.Token), Length: d.Length}
		if a.Type == sciio.AxisUnknown {
			a.Label = d.Token
		}
		axes = append(axes, a)
	}

	xi, yi := axisIndex(axes, sciio.AxisX), axisIndex(axes, sciio.AxisY)
	switch {
	case xi < 0 && yi < 0:
		axes = slices.Insert(axes, 0, sciio.Axis{Type: sciio.AxisX, Length: 1}, sciio.Axis{Type: sciio.AxisY, Length: 1})
	case xi < 0:
		axes = slices.Insert(axes, yi, sciio.Axis{Type: sciio.AxisX, Length: 1})
	case yi < 0:
		axes = slices.Insert(axes, xi+1, sciio.Axis{Type: sciio.AxisY, Length: 1})
	}
	for _, t := range []sciio.AxisType{sciio.AxisZ, sciio.AxisChannel, sciio.AxisTime} {
		if axisIndex(axes, t) < 0 {
			axes = append(axes, sciio.Axis{Type: t, Length: 1})
		}
	}
	return axes
}

// unpackChannels splits packed 24 or 48-bit samples into three interleaved
// samples. A single channel becomes three; channels already stored first
// are tripled. Packed samples behind any other axis cannot be split.
func unpackChannels(axes []sciio.Axis) ([]sciio.Axis, error) {
	ci := axisIndex(axes, sciio.AxisChannel)
	switch {
	case axes[ci].Length == 1:
		axes = slices.Delete(axes, ci, ci+1)
		return slices.Insert(axes, 0, sciio.Axis{Type: sciio.AxisChannel, Length: 3}), nil
	case ci == 0:
		axes[0].Length *= 3
		return axes, nil
	default:
		return nil, fmt.Errorf("%w: packed samples with %d channels stored after %s",
			sciio.ErrUnsupportedPixelType, axes[ci].Length, axes[0].Name())
	}
}

func axisIndex(axes []sciio.Axis, t sciio.AxisType) int {
	return slices.IndexFunc(axes, func(a sciio.Axis) bool { return a.Type == t })
}

// pixelType maps the format key and sample width to a pixel type. packed
// reports a 24 or 48-bit width split into three samples.
func pixelType(format string, bits int) (pt sciio.PixelType, packed bool, err error) {
	switch format {
	case "real":
		switch bits {
		case 32:
			return sciio.Float32, false, nil
		case 64:
			return sciio.Float64, false, nil
		}
	case "", "integer":
		bits = (bits + 7) / 8 * 8
		if bits == 24 || bits == 48 {
			bits /= 3
			packed = true
		}
		switch bits {
		case 8:
			return sciio.Uint8, packed, nil
		case 16:
			return sciio.Uint16, packed, nil
		case 32:
			return sciio.Uint32, packed, nil
		}
	default:
		return 0, false, fmt.Errorf("%w: format %q", sciio.ErrUnsupportedPixelType, format)
	}
	return 0, false, fmt.Errorf("%w: %d-bit %s", sciio.ErrUnsupportedPixelType, bits, cmp.Or(format, "integer"))
}

// littleEndian reads a byte_order value. A last index below the first means
// big-endian; an absent or unreadable value means little-endian.
func littleEndian(value string, log *zap.Logger) bool {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return true
	}
	first, err1 := strconv.Atoi(tokens[0])
	last, err2 := strconv.Atoi(tokens[len(tokens)-1])
	if err1 != nil || err2 != nil {
		log.Warn("unreadable byte_order, assuming little-endian", zap.String("byte_order", value))
		return true
	}
	return last >= first
}

// acquirePayload binds the payload that starts at offset in data. A payload
// declared compressed is decompressed only when it is smaller than the
// image; otherwise the declaration is wrong and the bytes are used as stored.
func (m *Metadata) acquirePayload(data sciio.SourceHandle, offset int64, img *sciio.ImageMetadata, log *zap.Logger) error {
	const op = "read payload"
	loc := data.Location()
	raw := max(data.Length()-offset, 0)
	expected := img.PayloadBytes()

	f, err := filter.New(m.Compression)
	if err != nil {
		return sciio.DecodeError(op, loc, fmt.Errorf("%w: %w", sciio.ErrUnsupportedCompression, err))
	}
	if f != nil && raw >= expected {
		log.Info("payload already uncompressed, ignoring declared compression",
			zap.String("compression", m.Compression), zap.Int64("bytes", raw), zap.Int64("expected", expected))
		m.CompressionBypassed = true
		f = nil
	}

	if f == nil {
		if raw < expected {
			return sciio.DecodeError(op, loc, fmt.Errorf("%w: %d bytes after offset %d, need %d",
				sciio.ErrTruncated, raw, offset, expected))
		}
		m.PayloadOffset = offset
		return m.SetSource(data)
	}

	out, err := filter.Decode(f, io.NewSectionReader(data, offset, raw), expected)
	if err != nil {
		return sciio.DecodeError(op, loc, err)
	}
	if int64(len(out)) < expected {
		return sciio.DecodeError(op, loc, fmt.Errorf("%w: %s payload inflates to %d bytes, need %d",
			sciio.ErrTruncated, f.Name(), len(out), expected))
	}
	m.PayloadOffset = 0
	return m.SetDecodedSource(sciio.NewBytesHandle(loc, out))
}
