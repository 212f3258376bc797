package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SeekMode selects the reference point for Reader.Seek, mirroring the three
// seek origins named in SPEC_FULL.md §4.A.
type SeekMode int

const (
	FromBeginning SeekMode = iota
	FromCurrent
	Relative
)

// Reader is a seekable cursor over an in-memory buffer. All scalar reads are
// little-endian. A Reader is not safe for concurrent use.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf. The Reader
// aliases buf; the caller must not mutate it while reads are outstanding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total number of bytes in the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Pos returns the current absolute read position.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// CurrentReadBytes returns the cursor's current offset from the start of the
// buffer; bytes consumed by Skip count toward it like bytes read.
func (r *Reader) CurrentReadBytes() int64 { return int64(r.pos) }

// Seek repositions the cursor. Negative offsets are permitted and are
// resolved relative to the chosen origin; the result must land within
// [0, len(buf)] or ErrInvalidEncoding is returned and the cursor is left
// unchanged.
func (r *Reader) Seek(mode SeekMode, offset int64) error {
	var base int64
	switch mode {
	case FromBeginning:
		base = 0
	case FromCurrent, Relative:
		base = int64(r.pos)
	default:
		return fmt.Errorf("codec: unknown seek mode %d: %w", mode, ErrInvalidEncoding)
	}
	target := base + offset
	if target < 0 || target > int64(len(r.buf)) {
		return fmt.Errorf("codec: seek to %d out of range [0,%d]: %w", target, len(r.buf), ErrInvalidEncoding)
	}
	r.pos = int(target)
	return nil
}

// Skip advances the cursor by n bytes without returning them, counting
// toward CurrentReadBytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("codec: skip %d bytes at pos %d: %w", n, r.pos, ErrTruncatedInput)
	}
	r.pos += n
	return nil
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("codec: need %d bytes, have %d: %w", n, r.Remaining(), ErrTruncatedInput)
	}
	return nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, fmt.Errorf("codec: bool value %d: %w", v, ErrInvalidEncoding)
	}
	return v == 1, nil
}

func (r *Reader) ReadU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBytes copies n bytes out of the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadWithoutCopy returns a slice of n bytes aliasing the underlying buffer.
// The caller must not retain the slice beyond the Reader's lifetime or after
// further mutation of the source buffer.
func (r *Reader) ReadWithoutCopy(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadString decodes a length-prefixed string written by Writer.WriteString
// (u8 length prefix, capped at MaxStringLength).
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	if int(n) > r.Remaining() {
		return "", fmt.Errorf("codec: string length %d exceeds remaining %d: %w", n, r.Remaining(), ErrInvalidEncoding)
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLongString decodes a length-prefixed string written by
// Writer.WriteLongString (u32 length prefix).
func (r *Reader) ReadLongString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if int64(n) > int64(r.Remaining()) {
		return "", fmt.Errorf("codec: string length %d exceeds remaining %d: %w", n, r.Remaining(), ErrInvalidEncoding)
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
