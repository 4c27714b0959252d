package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Type describes a stored sample encoding.
type Type struct {
	Size   int
	Float  bool
	Signed bool
	Order  binary.ByteOrder // nil means little-endian
}

func (t Type) order() binary.ByteOrder {
	if t.Order == nil {
		return binary.LittleEndian
	}
	return t.Order
}

// GoType returns the Go type that holds one sample.
func GoType(t Type) (reflect.Type, error) {
	if t.Float {
		switch t.Size {
		case 4:
			return reflect.TypeOf(float32(0)), nil
		case 8:
			return reflect.TypeOf(float64(0)), nil
		}
		return nil, fmt.Errorf("unsupported float size: %d", t.Size)
	}

	switch t.Size {
	case 1:
		if t.Signed {
			return reflect.TypeOf(int8(0)), nil
		}
		return reflect.TypeOf(uint8(0)), nil
	case 2:
		if t.Signed {
			return reflect.TypeOf(int16(0)), nil
		}
		return reflect.TypeOf(uint16(0)), nil
	case 4:
		if t.Signed {
			return reflect.TypeOf(int32(0)), nil
		}
		return reflect.TypeOf(uint32(0)), nil
	case 8:
		if t.Signed {
			return reflect.TypeOf(int64(0)), nil
		}
		return reflect.TypeOf(uint64(0)), nil
	}
	return nil, fmt.Errorf("unsupported integer size: %d", t.Size)
}

// Float64s decodes raw into one float64 per sample.
func Float64s(t Type, raw []byte) ([]float64, error) {
	if _, err := GoType(t); err != nil {
		return nil, err
	}
	if len(raw)%t.Size != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a multiple of sample size %d", len(raw), t.Size)
	}

	out := make([]float64, len(raw)/t.Size)
	for i := range out {
		out[i] = sample(t, raw[i*t.Size:])
	}
	return out, nil
}

// Sample decodes the sample at index i of raw.
func Sample(t Type, raw []byte, i int) (float64, error) {
	if _, err := GoType(t); err != nil {
		return 0, err
	}
	off := i * t.Size
	if i < 0 || off+t.Size > len(raw) {
		return 0, fmt.Errorf("sample %d outside buffer of %d bytes", i, len(raw))
	}
	return sample(t, raw[off:]), nil
}

func sample(t Type, b []byte) float64 {
	order := t.order()
	switch t.Size {
	case 1:
		if t.Signed {
			return float64(int8(b[0]))
		}
		return float64(b[0])
	case 2:
		v := order.Uint16(b)
		if t.Signed {
			return float64(int16(v))
		}
		return float64(v)
	case 4:
		v := order.Uint32(b)
		switch {
		case t.Float:
			return float64(math.Float32frombits(v))
		case t.Signed:
			return float64(int32(v))
		}
		return float64(v)
	default:
		v := order.Uint64(b)
		switch {
		case t.Float:
			return math.Float64frombits(v)
		case t.Signed:
			return float64(int64(v))
		}
		return float64(v)
	}
}
