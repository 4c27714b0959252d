// Package dtype decodes raw sample bytes into numeric values.
//
// A [Type] fixes the sample width, whether samples are IEEE 754 floats or
// integers, integer signedness, and byte order. [Float64s] converts a packed
// buffer of samples to float64 so planes of any pixel type can be inspected
// uniformly, and [Summarize] reduces them to basic statistics.
//
// Supported encodings:
//
//	Float | Size | Go type
//	------|------|------------------
//	no    | 1    | int8 or uint8
//	no    | 2    | int16 or uint16
//	no    | 4    | int32 or uint32
//	no    | 8    | int64 or uint64
//	yes   | 4    | float32
//	yes   | 8    | float64
package dtype
