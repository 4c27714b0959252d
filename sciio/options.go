package sciio

import (
	"math"

	"go.uber.org/zap"
)

// DefaultMaxReadBytes is the largest region a single plane read allocates.
const DefaultMaxReadBytes = math.MaxInt32

// Option configures formats, parsers and readers.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	opener       Opener
	maxReadBytes int64
}

func defaultOptions() options {
	return options{
		opener:       FileOpener,
		maxReadBytes: DefaultMaxReadBytes,
	}
}

func (o options) with(opts []Option) options {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) log() *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}

// WithLogger sets the logger used for parse and read events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOpener sets how locations are turned into source handles.
func WithOpener(open Opener) Option {
	return func(o *options) {
		if open != nil {
			o.opener = open
		}
	}
}

// WithMaxReadBytes sets the single-read limit for OpenPlane. Non-positive
// values are ignored.
func WithMaxReadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxReadBytes = n
		}
	}
}

// PlaneOption configures a single OpenPlane call.
type PlaneOption func(*planeOptions)

type planeOptions struct {
	region *Region
	buf    []byte
}

// WithRegion restricts the read to a sub-region of the plane.
func WithRegion(r Region) PlaneOption {
	return func(o *planeOptions) {
		c := r.Clone()
		o.region = &c
	}
}

// WithBuffer reads into buf instead of allocating. buf must hold at least the
// region size; the plane uses its leading bytes.
func WithBuffer(buf []byte) PlaneOption {
	return func(o *planeOptions) {
		o.buf = buf
	}
}
