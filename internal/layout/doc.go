// Package layout computes the byte arithmetic for reading a rectangular
// region of one image plane from a sequential source.
//
// A plane is described by a [Geometry]: the sample width, the lengths of any
// interleaved axes (stored inside each pixel, fastest varying), the X and Y
// extents, and the lengths of any remaining planar axes (stored as whole
// X×Y blocks, slowest varying). Rows may carry a scanline pad of extra pixels
// that hold no image data.
//
// X and Y here are the row and column axes of the stored block. The package
// never looks at axis types, so callers map whichever two axes follow the
// interleaved ones onto them.
//
// # Strategies
//
// [Plan] turns a [Region] into a sequence of [Op] values, each a skip
// followed by a read. Three strategies exist and are tried in order:
//
//   - [WholePlane]: the region covers the full plane and rows are unpadded.
//     One read of the entire plane.
//
//   - [WholeRows]: every axis except Y is at full extent and rows are
//     unpadded. For interleaved images this is a single skip and read; for
//     planar images one skip and read per X×Y block.
//
//   - [Tiled]: any valid region. One skip and read per selected row of each
//     selected block.
//
// All strategies produce byte-identical output for the same region. Trailing
// skips after the final read are never emitted, so a source is left
// positioned just after the last byte the region needs.
//
// # Destination Layout
//
// The destination buffer receives the region packed in storage order:
// interleaved samples, then X, then Y, then outer axes, with no padding.
// Its size is given by [Geometry.RegionBytes].
package layout
