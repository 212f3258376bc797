// Package codec implements the endian-neutral binary encoding shared by the
// scene action log, resource blobs, and the wire formats in package wire.
package codec

import "errors"

// ErrTruncatedInput is returned when a read would consume bytes past the end
// of the underlying buffer.
var ErrTruncatedInput = errors.New("codec: truncated input")

// ErrInvalidEncoding is returned when a length prefix or tagged value does
// not describe a well-formed encoding (e.g. a string length prefix pointing
// past the buffer, a bool byte other than 0 or 1, or a seek target outside
// the buffer).
var ErrInvalidEncoding = errors.New("codec: invalid encoding")
