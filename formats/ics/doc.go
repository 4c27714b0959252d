// Package ics decodes Image Cytometry Standard datasets.
//
// An ICS dataset is a text header of whitespace-separated key/value lines
// ending in a line "end". Version 1 stores the pixels in a companion file
// whose name differs from the header's in the character before the
// extension (sample.ics and sample.ids). Version 2 appends the pixels to the
// header file right after the "end" line. Either file of a version 1 pair
// may be opened; the other is found with [Companion].
//
// # Header Keys
//
//   - sizes, order: required. Paired positionally; order tokens are bits, x,
//     y, z, ch, t or any other label, which becomes an axis of unknown type.
//   - byte_order: byte indices. A last index below the first means
//     big-endian. For samples narrower than 32 bits the result is inverted.
//   - significant_bits: sample width; defaults to the bits entry of sizes.
//   - format: integer (the default) or real.
//   - compression: gzip, zlib or deflate. A payload that already holds the
//     full uncompressed size is read as stored.
//
// The section keywords layout, representation, parameter, history and
// sensor are dropped before the key. Malformed lines are logged and skipped.
//
// # Example
//
//	f := ics.New(sciio.WithLogger(log))
//	r := f.NewReader()
//	if err := r.SetSource("cells.ics"); err != nil {
//	    return err
//	}
//	defer r.Close(false)
//	plane, err := r.OpenPlane(0, 0)
package ics
