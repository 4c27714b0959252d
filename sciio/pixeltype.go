package sciio

import (
	"encoding/binary"
	"fmt"

	"github.com/robert-malhotra/go-sciio/internal/dtype"
)

// PixelType is the encoding of one sample.
type PixelType int

const (
	Int8 PixelType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// Bytes returns the sample width in bytes, or 0 for an invalid type.
func (p PixelType) Bytes() int {
	switch p {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the type is a signed integer or a float.
func (p PixelType) Signed() bool {
	switch p {
	case Int8, Int16, Int32, Float32, Float64:
		return true
	}
	return false
}

// Float reports whether the type is IEEE 754 floating point.
func (p PixelType) Float() bool {
	return p == Float32 || p == Float64
}

// Valid reports whether p is one of the defined types.
func (p PixelType) Valid() bool {
	return p.Bytes() > 0
}

func (p PixelType) String() string {
	switch p {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("PixelType(%d)", int(p))
	}
}

func (p PixelType) sampleType(order binary.ByteOrder) dtype.Type {
	return dtype.Type{
		Size:   p.Bytes(),
		Float:  p.Float(),
		Signed: p.Signed(),
		Order:  order,
	}
}
