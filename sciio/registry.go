package sciio

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the formats available to an application. Detection tries
// every format's signature check in registration order, then falls back to
// file suffixes.
type Registry struct {
	mu      sync.RWMutex
	formats []AnyFormat
	byName  map[string]AnyFormat
	opts    []Option
}

// NewRegistry returns an empty registry. opts are passed to every reader
// the registry opens.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		byName: make(map[string]AnyFormat),
		opts:   opts,
	}
}

// Register adds f. Names must be unique, ignoring case.
func (r *Registry) Register(f AnyFormat) error {
	name := strings.ToLower(f.Info().Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("format %q already registered", f.Info().Name)
	}
	r.byName[name] = f
	r.formats = append(r.formats, f)
	return nil
}

// Lookup returns the format with the given name, ignoring case.
func (r *Registry) Lookup(name string) (AnyFormat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[strings.ToLower(name)]
	return f, ok
}

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []AnyFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AnyFormat, len(r.formats))
	copy(out, r.formats)
	return out
}

// Detect returns the format of h. The handle position is unchanged.
func (r *Registry) Detect(h SourceHandle) (AnyFormat, error) {
	formats := r.Formats()
	for _, f := range formats {
		ok, err := f.Detect(h)
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}
	}
	for _, f := range formats {
		if f.Info().MatchesSuffix(h.Location()) {
			return f, nil
		}
	}
	return nil, DecodeError("detect", h.Location(), ErrNotRecognized)
}

// Open detects the format of location and returns a reader bound to it.
// opts are applied after the registry's options.
func (r *Registry) Open(location string, opts ...Option) (AnyReader, error) {
	all := append(append([]Option(nil), r.opts...), opts...)
	o := defaultOptions().with(all)

	h, err := o.opener(location)
	if err != nil {
		return nil, IOError("open", location, err)
	}
	f, err := r.Detect(h)
	if cerr := h.Close(); cerr != nil {
		o.log().Warn("closing probe handle", zap.String("location", location), zap.Error(cerr))
	}
	if err != nil {
		return nil, err
	}
	o.log().Debug("detected format", zap.String("location", location), zap.String("format", f.Info().Name))

	rd := f.NewReader(all...)
	if err := rd.SetSource(location); err != nil {
		return nil, err
	}
	return rd, nil
}
