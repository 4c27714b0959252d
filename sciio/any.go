package sciio

// AnyFormat is a Format with its metadata and plane types erased.
type AnyFormat interface {
	Info() FormatInfo
	Detect(h SourceHandle) (bool, error)
	NewMetadata() Metadata
	Parse(location string, opts ...Option) (Metadata, error)
	ParseHandle(h SourceHandle, opts ...Option) (Metadata, error)
	NewReader(opts ...Option) AnyReader
}

// AnyReader is a Reader with its metadata and plane types erased.
type AnyReader interface {
	Format() AnyFormat
	Metadata() (Metadata, bool)
	Source() SourceHandle
	SetSource(location string) error
	SetSourceHandle(h SourceHandle) error
	SetMetadata(m Metadata) error
	ImageCount() int
	PlaneCount(imageIndex int) (int64, error)
	OpenPlane(imageIndex int, planeIndex int64, opts ...PlaneOption) (Plane, error)
	Close(fileOnly bool) error
}

// Erase returns f as an AnyFormat.
func (f *Format[M, P]) Erase() AnyFormat {
	return erasedFormat[M, P]{f}
}

// Erase returns r as an AnyReader sharing r's state.
func (r *Reader[M, P]) Erase() AnyReader {
	return erasedReader[M, P]{r}
}

type erasedFormat[M Metadata, P Plane] struct {
	f *Format[M, P]
}

func (e erasedFormat[M, P]) Info() FormatInfo { return e.f.Info() }

func (e erasedFormat[M, P]) Detect(h SourceHandle) (bool, error) { return e.f.Detect(h) }

func (e erasedFormat[M, P]) NewMetadata() Metadata { return e.f.NewMetadata() }

func (e erasedFormat[M, P]) Parse(location string, opts ...Option) (Metadata, error) {
	m, err := e.f.Parse(location, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e erasedFormat[M, P]) ParseHandle(h SourceHandle, opts ...Option) (Metadata, error) {
	m, err := e.f.ParseHandle(h, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e erasedFormat[M, P]) NewReader(opts ...Option) AnyReader {
	return e.f.NewReader(opts...).Erase()
}

type erasedReader[M Metadata, P Plane] struct {
	r *Reader[M, P]
}

func (e erasedReader[M, P]) Format() AnyFormat { return e.r.format.Erase() }

func (e erasedReader[M, P]) Metadata() (Metadata, bool) {
	m, ok := e.r.Metadata()
	if !ok {
		return nil, false
	}
	return m, true
}

func (e erasedReader[M, P]) Source() SourceHandle { return e.r.Source() }

func (e erasedReader[M, P]) SetSource(location string) error { return e.r.SetSource(location) }

func (e erasedReader[M, P]) SetSourceHandle(h SourceHandle) error { return e.r.SetSourceHandle(h) }

func (e erasedReader[M, P]) SetMetadata(m Metadata) error {
	mm, ok := MetadataAs[M](m)
	if !ok {
		return DecodeError("set metadata", e.r.format.Info().Name, ErrFormatMismatch)
	}
	return e.r.SetMetadata(mm)
}

func (e erasedReader[M, P]) ImageCount() int { return e.r.ImageCount() }

func (e erasedReader[M, P]) PlaneCount(i int) (int64, error) { return e.r.PlaneCount(i) }

func (e erasedReader[M, P]) OpenPlane(imageIndex int, planeIndex int64, opts ...PlaneOption) (Plane, error) {
	p, err := e.r.OpenPlane(imageIndex, planeIndex, opts...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (e erasedReader[M, P]) Close(fileOnly bool) error { return e.r.Close(fileOnly) }

// MetadataAs recovers the concrete metadata type of m. It reports false when
// m was produced by a different format.
func MetadataAs[M Metadata](m Metadata) (M, bool) {
	v, ok := m.(M)
	return v, ok
}

// PlaneAs recovers the concrete plane type of p.
func PlaneAs[P Plane](p Plane) (P, bool) {
	v, ok := p.(P)
	return v, ok
}

// FormatAs recovers the typed Format behind f.
func FormatAs[M Metadata, P Plane](f AnyFormat) (*Format[M, P], bool) {
	e, ok := f.(erasedFormat[M, P])
	if !ok {
		return nil, false
	}
	return e.f, true
}

// ReaderAs recovers the typed Reader behind r. The returned reader shares
// state with r.
func ReaderAs[M Metadata, P Plane](r AnyReader) (*Reader[M, P], bool) {
	e, ok := r.(erasedReader[M, P])
	if !ok {
		return nil, false
	}
	return e.r, true
}
