package sciio

import (
	"fmt"
	"slices"
)

// Metadata is the decoded description of one dataset. Format-specific
// metadata types embed BaseMetadata and add their own fields.
type Metadata interface {
	FormatName() string
	DatasetName() string
	ImageCount() int
	Image(i int) (*ImageMetadata, error)
	Images() []*ImageMetadata
	Source() SourceHandle
	SourceLocation() string
	UsedFiles() []string
	Table() map[string]string
	Frozen() bool
	Close(fileOnly bool) error

	base() *BaseMetadata
}

// BaseMetadata holds the state shared by every format's metadata.
type BaseMetadata struct {
	format         string
	name           string
	images         []*ImageMetadata
	source         SourceHandle
	sourceLocation string
	decoded        bool // source holds transformed bytes and cannot be reopened
	usedFiles      []string
	table          map[string]string
	frozen         bool
}

func (m *BaseMetadata) base() *BaseMetadata { return m }

// FormatName returns the name of the format that decoded the dataset.
func (m *BaseMetadata) FormatName() string { return m.format }

// DatasetName returns the dataset name.
func (m *BaseMetadata) DatasetName() string { return m.name }

// SetDatasetName sets the dataset name.
func (m *BaseMetadata) SetDatasetName(name string) error {
	if m.frozen {
		return ErrFrozen
	}
	m.name = name
	return nil
}

func (m *BaseMetadata) ImageCount() int { return len(m.images) }

// Image returns image i.
func (m *BaseMetadata) Image(i int) (*ImageMetadata, error) {
	if i < 0 || i >= len(m.images) {
		return nil, fmt.Errorf("%w: image %d of %d", ErrIndexOutOfRange, i, len(m.images))
	}
	return m.images[i], nil
}

// Images returns the images in order.
func (m *BaseMetadata) Images() []*ImageMetadata {
	return slices.Clone(m.images)
}

// AddImage appends an image.
func (m *BaseMetadata) AddImage(img *ImageMetadata) error {
	if m.frozen {
		return ErrFrozen
	}
	m.images = append(m.images, img)
	return nil
}

// Source returns the handle the payload is read from, or nil after
// Close.
func (m *BaseMetadata) Source() SourceHandle { return m.source }

// SourceLocation returns the location of the payload handle. It survives
// Close(true) so the dataset can be reattached.
func (m *BaseMetadata) SourceLocation() string { return m.sourceLocation }

// SetSource binds the handle planes are read from.
func (m *BaseMetadata) SetSource(h SourceHandle) error {
	if m.frozen {
		return ErrFrozen
	}
	m.attach(h)
	return nil
}

// SetDecodedSource binds an in-memory handle holding bytes derived from the
// file at its location, such as a decompressed payload. Such a source is
// never reopened from its location; readers parse the dataset again instead.
func (m *BaseMetadata) SetDecodedSource(h SourceHandle) error {
	if m.frozen {
		return ErrFrozen
	}
	m.attach(h)
	m.decoded = true
	return nil
}

func (m *BaseMetadata) attach(h SourceHandle) {
	m.source = h
	if h != nil {
		m.sourceLocation = h.Location()
	}
}

// UsedFiles returns every location the dataset was decoded from.
func (m *BaseMetadata) UsedFiles() []string { return slices.Clone(m.usedFiles) }

// AddUsedFile records a location. Duplicates are ignored.
func (m *BaseMetadata) AddUsedFile(location string) error {
	if m.frozen {
		return ErrFrozen
	}
	if !slices.Contains(m.usedFiles, location) {
		m.usedFiles = append(m.usedFiles, location)
	}
	return nil
}

// Uses reports whether location is one of the used files.
func (m *BaseMetadata) Uses(location string) bool {
	return slices.Contains(m.usedFiles, location)
}

// Table returns a copy of the dataset-level raw key/values.
func (m *BaseMetadata) Table() map[string]string {
	out := make(map[string]string, len(m.table))
	for k, v := range m.table {
		out[k] = v
	}
	return out
}

// SetTable replaces the dataset-level raw key/values.
func (m *BaseMetadata) SetTable(t map[string]string) error {
	if m.frozen {
		return ErrFrozen
	}
	m.table = make(map[string]string, len(t))
	for k, v := range t {
		m.table[k] = v
	}
	return nil
}

// Frozen reports whether a parser has finished populating the metadata.
func (m *BaseMetadata) Frozen() bool { return m.frozen }

// Close releases the source handle. Unless fileOnly is set the images are
// dropped too.
func (m *BaseMetadata) Close(fileOnly bool) error {
	var err error
	if m.source != nil {
		err = m.source.Close()
		m.source = nil
	}
	if !fileOnly {
		m.images = nil
		m.table = nil
	}
	return err
}

// freeze runs the finalization pass and locks the metadata.
func (m *BaseMetadata) freeze(format string) error {
	m.format = format
	if len(m.images) == 0 {
		return fmt.Errorf("%w: dataset has no images", ErrInvalidImage)
	}
	for _, img := range m.images {
		if err := img.finalize(); err != nil {
			return err
		}
	}
	m.frozen = true
	return nil
}
