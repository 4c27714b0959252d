package sciio

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ParseState is the progress of one parse.
type ParseState int

const (
	Unparsed ParseState = iota
	HeaderRead
	DimensionsResolved
	PayloadAcquired
	MetadataPopulated
)

func (s ParseState) String() string {
	switch s {
	case Unparsed:
		return "unparsed"
	case HeaderRead:
		return "header-read"
	case DimensionsResolved:
		return "dimensions-resolved"
	case PayloadAcquired:
		return "payload-acquired"
	case MetadataPopulated:
		return "metadata-populated"
	default:
		return fmt.Sprintf("ParseState(%d)", int(s))
	}
}

// Session is the state of a single parse. Drivers receive it in Decode and
// use it to reach the bound handle, open companion files and record stage
// transitions.
type Session struct {
	handle SourceHandle
	opener Opener
	logger *zap.Logger
	state  ParseState
	opened []SourceHandle
}

func newSession(h SourceHandle, o options) *Session {
	return &Session{
		handle: h,
		opener: o.opener,
		logger: o.log().With(zap.String("location", h.Location())),
	}
}

// Handle returns the handle the parse was started on.
func (s *Session) Handle() SourceHandle { return s.handle }

// Location returns the location of the bound handle.
func (s *Session) Location() string { return s.handle.Location() }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// State returns the current stage.
func (s *Session) State() ParseState { return s.state }

// Advance moves to the next stage. Stages cannot be skipped or revisited,
// and MetadataPopulated is entered only by the parser.
func (s *Session) Advance(next ParseState) error {
	if next == MetadataPopulated {
		return DecodeError("parse", s.Location(),
			fmt.Errorf("%w: %s is entered by the parser", ErrInvalidTransition, next))
	}
	return s.advance(next)
}

func (s *Session) advance(next ParseState) error {
	if next != s.state+1 {
		return DecodeError("parse", s.Location(),
			fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, next))
	}
	s.logger.Debug("parse stage", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
	return nil
}

// Open opens another location through the parser's opener. The session
// closes it when the parse ends unless it becomes the metadata source.
func (s *Session) Open(location string) (SourceHandle, error) {
	h, err := s.opener(location)
	if err != nil {
		return nil, IOError("open", location, err)
	}
	s.opened = append(s.opened, h)
	return h, nil
}

// release closes every handle the session saw except keep.
func (s *Session) release(keep SourceHandle) {
	for _, h := range append([]SourceHandle{s.handle}, s.opened...) {
		if h == keep {
			continue
		}
		if err := h.Close(); err != nil {
			s.logger.Warn("closing handle", zap.String("handle", h.Location()), zap.Error(err))
		}
	}
}

// Parser drives a format's decoder and finalizes the metadata it produces.
// A Parser is not safe for concurrent use.
type Parser[M Metadata, P Plane] struct {
	format  *Format[M, P]
	opts    options
	state   ParseState
	meta    M
	hasMeta bool
}

// State returns the parser state.
func (p *Parser[M, P]) State() ParseState { return p.state }

// Metadata returns the most recently populated metadata.
func (p *Parser[M, P]) Metadata() (M, bool) { return p.meta, p.hasMeta }

// Parse decodes the dataset at location. If the parser's current metadata
// was decoded from location and its file handle is still open, that handle
// is rewound and reused.
func (p *Parser[M, P]) Parse(location string) (M, error) {
	var existing M
	if p.hasMeta {
		existing = p.meta
	}
	return p.ParseInto(location, existing)
}

// ParseInto decodes the dataset at location, reusing the open handle of
// existing when existing was decoded from location. existing is closed
// either way and must not be used afterwards.
func (p *Parser[M, P]) ParseInto(location string, existing M) (M, error) {
	var zero M
	var h SourceHandle
	if !isNil(existing) {
		b := existing.base()
		if b.Uses(location) && !b.decoded && isOpen(b.source) {
			h = b.source
			b.source = nil
			if _, err := h.Seek(0, io.SeekStart); err != nil {
				h.Close()
				h = nil
			}
		}
	}
	p.drop(existing)

	if h == nil {
		opened, err := p.opts.opener(location)
		if err != nil {
			return zero, IOError("open", location, err)
		}
		h = opened
	}
	return p.parse(h)
}

// ParseHandle decodes the dataset in h. The parser takes ownership of h and
// closes it on failure or when it does not end up holding the payload.
func (p *Parser[M, P]) ParseHandle(h SourceHandle) (M, error) {
	var zero M
	p.drop(zero)
	return p.parse(h)
}

// Close releases the current metadata's handle. Unless fileOnly is set the
// metadata is dropped as well.
func (p *Parser[M, P]) Close(fileOnly bool) error {
	if !p.hasMeta {
		return nil
	}
	err := p.meta.Close(fileOnly)
	if !fileOnly {
		var zero M
		p.meta, p.hasMeta, p.state = zero, false, Unparsed
	}
	return err
}

// drop fully closes the parser's metadata and existing.
func (p *Parser[M, P]) drop(existing M) {
	log := p.opts.log()
	if p.hasMeta {
		if err := p.meta.Close(false); err != nil {
			log.Warn("closing previous source", zap.Error(err))
		}
	}
	if !isNil(existing) {
		if err := existing.Close(false); err != nil {
			log.Warn("closing previous source", zap.Error(err))
		}
	}
	var zero M
	p.meta, p.hasMeta, p.state = zero, false, Unparsed
}

func (p *Parser[M, P]) parse(h SourceHandle) (M, error) {
	var zero M
	info := p.format.Info()
	s := newSession(h, p.opts)
	s.logger = s.logger.With(zap.String("format", info.Name))
	m := p.format.driver.NewMetadata()

	fail := func(err error) (M, error) {
		s.release(nil)
		if cerr := m.Close(false); cerr != nil {
			s.logger.Warn("closing partial metadata", zap.Error(cerr))
		}
		p.state = Unparsed
		s.logger.Debug("parse failed", zap.Error(err))
		return zero, DecodeError("parse", h.Location(), err)
	}

	if err := p.format.driver.Decode(s, m); err != nil {
		return fail(err)
	}
	if s.state != PayloadAcquired {
		return fail(fmt.Errorf("%w: decode ended in %s", ErrInvalidTransition, s.state))
	}

	b := m.base()
	if b.source == nil {
		b.attach(h)
	}
	if len(b.usedFiles) == 0 {
		b.usedFiles = append(b.usedFiles, h.Location())
	}
	if err := b.freeze(info.Name); err != nil {
		return fail(err)
	}
	if err := s.advance(MetadataPopulated); err != nil {
		return fail(err)
	}
	s.release(b.source)

	p.meta, p.hasMeta, p.state = m, true, MetadataPopulated
	return m, nil
}
