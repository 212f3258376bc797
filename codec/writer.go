package codec

import (
	"encoding/binary"
	"math"
)

// MaxStringLength is the legacy cap on string encodings written through a
// Writer's WriteString. Strings longer than this are silently truncated to
// match observed behavior of the original format; see SPEC_FULL.md §4.A.
const MaxStringLength = 255

// Writer appends scalars, strings, and raw byte blobs to an in-memory sink.
// It is the append-only counterpart to Reader and is not safe for concurrent
// use by multiple goroutines.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with an empty backing buffer.
func NewWriter() *Writer { return new(Writer).Init() }

// Init resets the writer to an empty buffer and returns it, matching the
// teacher's Init-returns-receiver builder convention.
func (w *Writer) Init() *Writer {
	w.buf = w.buf[:0]
	return w
}

// Bytes returns the accumulated buffer. The returned slice aliases the
// writer's storage; callers must not retain it across further writes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) WriteU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) WriteI8(v int8)    { w.WriteU8(uint8(v)) }
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
	} else {
		w.WriteU8(0)
	}
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI16(v int16) { w.WriteU16(uint16(v)) }

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteBytes appends a raw byte slice with no length prefix.
func (w *Writer) WriteBytes(p []byte) { w.buf = append(w.buf, p...) }

// WriteString encodes a length-prefixed string with a u8 prefix. Strings
// longer than MaxStringLength are truncated to the cap before being written,
// matching the legacy behavior documented in SPEC_FULL.md §4.A; use
// WriteLongString for a u32 prefix without truncation.
func (w *Writer) WriteString(s string) {
	if len(s) > MaxStringLength {
		s = s[:MaxStringLength]
	}
	w.WriteU8(uint8(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteLongString encodes a length-prefixed string using a u32 prefix,
// without the MaxStringLength truncation applied by WriteString. Used for
// payload fields (e.g. effect shader sources) that are not log-scoped.
func (w *Writer) WriteLongString(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}
