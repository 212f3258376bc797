package resource

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestArrayResource(t *testing.T, payload []byte) *Resource {
	t.Helper()
	meta := ArrayMetadata{ElementType: 1, ElementCount: uint32(len(payload) / 4)}
	r, err := Create(KindArray, meta, payload, 0, "test-array")
	require.NoError(t, err)
	return r
}

func TestHashStableAcrossCompressDecompress(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 64)
	r := newTestArrayResource(t, payload)
	before := r.Hash

	require.NoError(t, r.Compress(Realtime))
	require.NoError(t, r.Decompress(0))
	require.Equal(t, before, r.Hash)
	require.Equal(t, payload, r.Payload())
}

func TestHashEqualForIdenticalContent(t *testing.T) {
	payload := []byte("identical content bytes")
	a := newTestArrayResource(t, append([]byte(nil), payload...))
	b := newTestArrayResource(t, append([]byte(nil), payload...))
	require.Equal(t, a.Hash, b.Hash)
}

func TestHashDiffersOnPerturbation(t *testing.T) {
	base := make([]byte, 256)
	_, err := rand.Read(base)
	require.NoError(t, err)
	baseRes := newTestArrayResource(t, append([]byte(nil), base...))

	for i := 0; i < 64; i++ {
		perturbed := append([]byte(nil), base...)
		perturbed[i%len(perturbed)] ^= 0xFF
		pr := newTestArrayResource(t, perturbed)
		require.NotEqual(t, baseRes.Hash, pr.Hash, "perturbation %d should change hash", i)
	}
}

func TestTextureMipChainValidates(t *testing.T) {
	for _, dim := range []uint32{1, 2, 4, 16, 256, 1024} {
		meta := TextureMetadata{
			TexKind:      KindTexture2D,
			Width:        dim,
			Height:       dim,
			Depth:        1,
			Format:       FormatRGBA8,
			MipCount:     1,
			MipByteSizes: []uint32{dim * dim * 4},
		}
		payload := make([]byte, dim*dim*4)
		_, err := Create(KindTexture2D, meta, payload, 0, "tex")
		require.NoError(t, err, "dim=%d", dim)
	}
}

func TestTextureMipOnePixelShortFails(t *testing.T) {
	meta := TextureMetadata{
		TexKind:      KindTexture2D,
		Width:        4,
		Height:       4,
		Depth:        1,
		Format:       FormatRGBA8,
		MipCount:     1,
		MipByteSizes: []uint32{4*4*4 - 1},
	}
	payload := make([]byte, 4*4*4-1)
	_, err := Create(KindTexture2D, meta, payload, 0, "tex")
	require.ErrorIs(t, err, ErrInvalidResource)
}

func TestCompressedFormatRequiresBlockAlignedMips(t *testing.T) {
	meta := TextureMetadata{
		TexKind:      KindTexture2D,
		Width:        6,
		Height:       6,
		Depth:        1,
		Format:       FormatASTC4x4,
		MipCount:     1,
		MipByteSizes: []uint32{16 * 2}, // two 4x4 blocks worth, arbitrary
	}
	_, err := Create(KindTexture2D, meta, make([]byte, 32), 0, "astc")
	require.ErrorIs(t, err, ErrInvalidResource)
}

func TestFileRoundTrip(t *testing.T) {
	width, height := uint32(4), uint32(4)
	mip0 := make([]byte, width*height*4)
	for i := range mip0 {
		mip0[i] = byte(i)
	}
	mip1 := make([]byte, 2*2*4)
	mip2 := make([]byte, 1*1*4)
	payload := append(append(append([]byte(nil), mip0...), mip1...), mip2...)

	meta := TextureMetadata{
		TexKind:      KindTexture2D,
		Width:        width,
		Height:       height,
		Depth:        1,
		Format:       FormatRGBA8,
		MipCount:     3,
		MipByteSizes: []uint32{uint32(len(mip0)), uint32(len(mip1)), uint32(len(mip2))},
	}
	r, err := Create(KindTexture2D, meta, payload, 7, "ramp-texture")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, []*Resource{r}))

	readBack, err := ReadFile(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, readBack, 1)
	require.Equal(t, r.Hash, readBack[0].Hash)
	require.Equal(t, payload, readBack[0].Payload())
	require.Equal(t, meta, readBack[0].Metadata)
}
