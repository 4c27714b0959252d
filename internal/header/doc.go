// Package header tokenizes line-oriented text headers of the form
//
//	key value value ...
//
// terminated by a sentinel line such as "end".
//
// Each line is decoded from ISO-8859-1 and split on whitespace. Tokens
// listed as section markers are dropped wherever they precede the key; the
// first remaining token is the key and the rest, rejoined with single spaces,
// is the value. Lines that name a key but carry no value are reported as
// [Problem] values and skipped rather than failing the parse.
//
// [Parse] stops immediately after the sentinel line, leaving the underlying
// reader positioned at the first byte that follows it. Formats that embed a
// binary payload after the header use that position as the payload offset.
package header
