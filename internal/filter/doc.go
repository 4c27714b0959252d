// Package filter decompresses image payloads.
//
// Formats name their compression scheme in a header key. [New] maps that name
// to a [Filter]; names with no registered filter yield [ErrUnsupported].
//
// # Supported Filters
//
//   - gzip: RFC 1952 streams via [Gzip], using github.com/klauspost/compress/gzip.
//
//   - zlib: RFC 1950 streams via [Zlib], using github.com/klauspost/compress/zlib.
//
//   - deflate: raw RFC 1951 streams via [Deflate], using
//     github.com/klauspost/compress/flate.
//
// The names "none" and "uncompressed" resolve to a nil filter, meaning the
// payload is stored as-is.
//
// # Key Types
//
//   - [Filter]: Interface implemented by all filters (Name and NewReader methods)
//   - [Registry]: Constructors keyed by lower-case scheme name
package filter
