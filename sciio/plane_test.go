package sciio

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestRegionValidate(t *testing.T) {
	img, _ := NewImage(ImageConfig{
		Axes:                 []Axis{{AxisChannel, "", 3}, {AxisX, "", 10}, {AxisY, "", 6}, {AxisZ, "", 2}},
		PixelType:            Uint8,
		InterleavedAxisCount: 1,
	})

	tests := []struct {
		name     string
		region   Region
		contains string
	}{
		{"full", Region{[]int64{0, 0, 0}, []int64{3, 10, 6}}, ""},
		{"tile", Region{[]int64{0, 4, 2}, []int64{3, 6, 4}}, ""},
		{"negative offset", Region{[]int64{0, -1, 0}, []int64{3, 1, 1}}, "axis 1 (X)"},
		{"zero length", Region{[]int64{0, 0, 0}, []int64{3, 10, 0}}, "axis 2 (Y)"},
		{"past end", Region{[]int64{0, 5, 0}, []int64{3, 6, 1}}, "axis 1 (X)"},
		{"partial channel", Region{[]int64{0, 0, 0}, []int64{2, 10, 6}}, "interleaved axis 0 (Channel)"},
		{"too many axes", Region{[]int64{0, 0, 0, 0}, []int64{3, 10, 6, 2}}, "3 planar axes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate(img)
			if tt.contains == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrRegionOutOfBounds) {
				t.Fatalf("expected ErrRegionOutOfBounds, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q must contain %q", err, tt.contains)
			}
		})
	}
}

func TestRegionBytesAndClone(t *testing.T) {
	img, _ := NewImage(ImageConfig{Axes: []Axis{{AxisX, "", 10}, {AxisY, "", 6}}, PixelType: Int32})
	r := Region{Offsets: []int64{1, 2}, Lengths: []int64{3, 4}}

	n, err := r.Bytes(img)
	if err != nil || n != 48 {
		t.Errorf("Bytes = %d (%v), want 48", n, err)
	}

	c := r.Clone()
	c.Offsets[0] = 9
	if r.Offsets[0] != 1 {
		t.Error("Clone must not share offsets")
	}

	full := FullRegion(img)
	if full.Lengths[0] != 10 || full.Lengths[1] != 6 || full.Offsets[0] != 0 {
		t.Errorf("unexpected full region %+v", full)
	}
}

func TestSamples(t *testing.T) {
	tests := []struct {
		name   string
		pt     PixelType
		little bool
		data   []byte
		want   []float64
	}{
		{"uint8", Uint8, true, []byte{0, 7, 255, 1}, []float64{0, 7, 255, 1}},
		{"int16 big-endian", Int16, false, []byte{0xFF, 0xFE, 0x00, 0x03, 0x01, 0x00, 0x80, 0x00}, []float64{-2, 3, 256, -32768}},
		{"uint16 little-endian", Uint16, true, []byte{0x01, 0x00, 0x00, 0x01, 0xFF, 0xFF, 0x02, 0x00}, []float64{1, 256, 65535, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, _ := NewImage(ImageConfig{
				Axes:         []Axis{{AxisX, "", 2}, {AxisY, "", 2}},
				PixelType:    tt.pt,
				LittleEndian: tt.little,
			})
			got, err := Samples(NewBytePlane(img, FullRegion(img), tt.data))
			if err != nil {
				t.Fatalf("Samples failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSamplesFloat32(t *testing.T) {
	img, _ := NewImage(ImageConfig{
		Axes:         []Axis{{AxisX, "", 2}, {AxisY, "", 1}},
		PixelType:    Float32,
		LittleEndian: true,
	})
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data, math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(-0.25))

	got, err := Samples(NewBytePlane(img, FullRegion(img), data))
	if err != nil {
		t.Fatalf("Samples failed: %v", err)
	}
	if got[0] != 1.5 || got[1] != -0.25 {
		t.Errorf("expected [1.5 -0.25], got %v", got)
	}
}
