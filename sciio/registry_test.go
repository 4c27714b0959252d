package sciio

import (
	"bytes"
	"strings"
	"testing"
)

// altDriver decodes the raw layout but never claims a file by content.
type altDriver struct{ rawDriver }

func (altDriver) Info() FormatInfo {
	return FormatInfo{Name: "ALT", Suffixes: []string{"alt", "raw"}}
}

func (altDriver) Detect(SourceHandle) (bool, error) { return false, nil }

func newTestRegistry(t *testing.T, tr *tracker) *Registry {
	t.Helper()
	reg := NewRegistry(WithOpener(tr.open))
	alt := NewFormat[*rawMetadata, *BytePlane](altDriver{})
	raw := NewFormat[*rawMetadata, *BytePlane](rawDriver{})
	for _, f := range []AnyFormat{alt.Erase(), raw.Erase()} {
		if err := reg.Register(f); err != nil {
			t.Fatalf("Register(%s) failed: %v", f.Info().Name, err)
		}
	}
	return reg
}

func TestRegistryDetect(t *testing.T) {
	file, _ := rawFile(2, 2, 1, rawPlanarPlanes, Uint8)
	reg := newTestRegistry(t, newTracker(nil))

	tests := []struct {
		name     string
		location string
		data     []byte
		want     string
	}{
		{"signature beats suffix", "image.alt", file, "RAW"},
		{"signature without suffix", "image", file, "RAW"},
		{"suffix fallback", "image.ALT", []byte("junk"), "ALT"},
		{"first suffix match wins", "image.raw", []byte("junk"), "ALT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBytesHandle(tt.location, tt.data)
			f, err := reg.Detect(h)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if f.Info().Name != tt.want {
				t.Errorf("detected %s, want %s", f.Info().Name, tt.want)
			}
			if h.Position() != 0 {
				t.Errorf("Detect moved the handle to %d", h.Position())
			}
		})
	}

	_, err := reg.Detect(NewBytesHandle("image.png", []byte("junk")))
	mustDecodeKind(t, err, ErrNotRecognized)
}

func TestRegistryRegister(t *testing.T) {
	reg := newTestRegistry(t, newTracker(nil))

	dup := NewFormat[*rawMetadata, *BytePlane](rawDriver{})
	if err := reg.Register(dup.Erase()); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("expected duplicate registration error, got %v", err)
	}

	if _, ok := reg.Lookup("raw"); !ok {
		t.Error("Lookup must ignore case")
	}
	if _, ok := reg.Lookup("tiff"); ok {
		t.Error("Lookup found an unregistered format")
	}

	names := []string{}
	for _, f := range reg.Formats() {
		names = append(names, f.Info().Name)
	}
	if strings.Join(names, ",") != "ALT,RAW" {
		t.Errorf("Formats must keep registration order, got %v", names)
	}
}

func TestRegistryOpen(t *testing.T) {
	file, payload := rawFile(3, 2, 2, rawPlanarPlanes, Uint8)
	tr := newTracker(map[string][]byte{"scan.alt": file})
	reg := newTestRegistry(t, tr)

	r, err := reg.Open("scan.alt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close(false)

	if r.Format().Info().Name != "RAW" {
		t.Errorf("expected RAW reader, got %s", r.Format().Info().Name)
	}
	if tr.opens["scan.alt"] != 2 {
		t.Errorf("expected a probe open and a parse open, got %d", tr.opens["scan.alt"])
	}
	if !tr.opened[0].Closed() {
		t.Error("probe handle must be closed")
	}

	p, err := r.OpenPlane(0, 1)
	if err != nil {
		t.Fatalf("OpenPlane failed: %v", err)
	}
	if !bytes.Equal(p.Bytes(), payload[6:]) {
		t.Errorf("plane mismatch: %v", p.Bytes())
	}

	if _, err := reg.Open("missing.alt"); !IsIO(err) {
		t.Errorf("expected I/O error for a missing file, got %v", err)
	}
}
