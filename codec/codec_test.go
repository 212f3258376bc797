package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0xAB)
	w.WriteI8(-7)
	w.WriteBool(true)
	w.WriteU16(0xBEEF)
	w.WriteU32(0xDEADBEEF)
	w.WriteU64(0x0102030405060708)
	w.WriteI64(-12345)
	w.WriteF32(3.5)
	w.WriteF64(-2.25)

	r := NewReader(w.Bytes())
	u8, err := r.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 0xAB, u8)

	i8, err := r.ReadI8()
	require.NoError(t, err)
	require.EqualValues(t, -7, i8)

	b, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, b)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	require.EqualValues(t, 0xBEEF, u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 0xDEADBEEF, u32)

	u64, err := r.ReadU64()
	require.NoError(t, err)
	require.EqualValues(t, 0x0102030405060708, u64)

	i64, err := r.ReadI64()
	require.NoError(t, err)
	require.EqualValues(t, -12345, i64)

	f32, err := r.ReadF32()
	require.NoError(t, err)
	require.EqualValues(t, 3.5, f32)

	f64, err := r.ReadF64()
	require.NoError(t, err)
	require.EqualValues(t, -2.25, f64)
}

func TestStringRoundTripWithinCap(t *testing.T) {
	w := NewWriter()
	w.WriteString("hello scene")
	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello scene", s)
}

func TestStringTruncatesAtCap(t *testing.T) {
	long := strings.Repeat("x", MaxStringLength+50)
	w := NewWriter()
	w.WriteString(long)
	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, long[:MaxStringLength], s)
	require.Len(t, s, MaxStringLength)
}

func TestSeekFromBeginningIgnoresPriorPosition(t *testing.T) {
	w := NewWriter()
	for i := 0; i < 16; i++ {
		w.WriteU8(uint8(i))
	}
	r := NewReader(w.Bytes())
	_, _ = r.ReadU8()
	_, _ = r.ReadU8()
	_, _ = r.ReadU8()

	require.NoError(t, r.Seek(FromBeginning, 5))
	v, err := r.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
}

func TestSeekNegativeRelative(t *testing.T) {
	w := NewWriter()
	for i := 0; i < 10; i++ {
		w.WriteU8(uint8(i))
	}
	r := NewReader(w.Bytes())
	require.NoError(t, r.Seek(FromBeginning, 8))
	require.NoError(t, r.Seek(FromCurrent, -3))
	v, err := r.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
}

func TestCurrentReadBytesIncludesSkip(t *testing.T) {
	w := NewWriter()
	for i := 0; i < 10; i++ {
		w.WriteU8(uint8(i))
	}
	r := NewReader(w.Bytes())
	_, _ = r.ReadU8()
	require.NoError(t, r.Skip(4))
	require.EqualValues(t, 5, r.CurrentReadBytes())
}

func TestReadPastEndIsTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadU32()
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestSeekOutOfRangeIsInvalidEncoding(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	err := r.Seek(FromBeginning, 10)
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestOptionalSentinel(t *testing.T) {
	type primitive uint8
	require.EqualValues(t, 0xFF, NoneSentinel[primitive]())
	require.True(t, IsNone[primitive](0xFF))
	require.False(t, IsNone[primitive](3))
}

func TestReadWithoutCopyAliasesBuffer(t *testing.T) {
	buf := []byte{10, 20, 30, 40}
	r := NewReader(buf)
	s, err := r.ReadWithoutCopy(2)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20}, s)
	buf[0] = 99
	require.Equal(t, byte(99), s[0], "slice should alias the source buffer")
}
