// Package sciio decodes scientific image formats into a uniform model and
// reads rectangular regions of their planes.
package sciio

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrNotRecognized          = errors.New("format not recognized")
	ErrMissingKey             = errors.New("required header key missing")
	ErrCompanionNotFound      = errors.New("companion file not found")
	ErrUnsupportedPixelType   = errors.New("unsupported pixel type")
	ErrUnsupportedCompression = errors.New("unsupported compression")
	ErrUnsupportedLayout      = errors.New("unsupported axis layout")
	ErrTruncated              = errors.New("payload truncated")
	ErrInvalidImage           = errors.New("invalid image metadata")
	ErrIndexOutOfRange        = errors.New("index out of range")
	ErrRegionOutOfBounds      = errors.New("region out of bounds")
	ErrBufferTooSmall         = errors.New("buffer too small for region")
	ErrPlaneTooLarge          = errors.New("plane too large for a single read")
	ErrInvalidTransition      = errors.New("invalid parse state transition")
	ErrNoSource               = errors.New("no source bound")
	ErrClosed                 = errors.New("source is closed")
	ErrFrozen                 = errors.New("metadata is frozen")
	ErrFormatMismatch         = errors.New("metadata belongs to another format")
)

// Kind separates failures in the data from failures of the source.
type Kind string

const (
	KindDecode Kind = "decode"
	KindIO     Kind = "io"
)

// Error is the structured error returned by parsers and readers.
type Error struct {
	Kind     Kind
	Op       string // operation, e.g. "parse" or "open plane"
	Resource string // file, axis or key the failure concerns
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Kind))
	b.WriteString("] ")
	b.WriteString(e.Op)
	if e.Resource != "" {
		b.WriteByte(' ')
		b.WriteString(e.Resource)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// DecodeError wraps err as a decode error. Errors that already carry a kind
// are returned unchanged.
func DecodeError(op, resource string, err error) error {
	return wrap(KindDecode, op, resource, err)
}

// IOError wraps err as an I/O error. Errors that already carry a kind are
// returned unchanged.
func IOError(op, resource string, err error) error {
	return wrap(KindIO, op, resource, err)
}

func wrap(kind Kind, op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Resource: resource, Err: err}
}

// IsDecode reports whether err is a decode error.
func IsDecode(err error) bool {
	return errors.Is(err, &Error{Kind: KindDecode})
}

// IsIO reports whether err is an I/O error.
func IsIO(err error) bool {
	return errors.Is(err, &Error{Kind: KindIO})
}
