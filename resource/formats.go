package resource

// PixelFormat enumerates the texture pixel formats a Texture2D/3D/Cube
// resource may declare. Compressed formats carry a fixed block size (table
// below, SPEC_FULL.md §6); uncompressed formats have a per-texel byte size.
type PixelFormat uint32

const (
	FormatRGBA8 PixelFormat = iota
	FormatRGB8
	FormatRG8
	FormatR8
	FormatRGBA16F
	FormatRGBA32F

	FormatETC2RGB
	FormatETC2RGBA
	FormatASTC4x4
	FormatASTCSRGB4x4
	FormatASTC5x4
	FormatASTC5x5
	FormatASTC6x5
	FormatASTC6x6
	FormatASTC8x5
	FormatASTC8x6
	FormatASTC8x8
	FormatASTC10x5
	FormatASTC10x6
	FormatASTC10x8
	FormatASTC10x10
	FormatASTC12x10
	FormatASTC12x12
)

// blockSize describes the (width, height) pixel footprint of one compressed
// block for a PixelFormat.
type blockSize struct{ w, h int }

// compressedBlockSizes is the table from SPEC_FULL.md §6. SRGB variants
// share their non-SRGB counterpart's block size.
var compressedBlockSizes = map[PixelFormat]blockSize{
	FormatETC2RGB:     {4, 4},
	FormatETC2RGBA:    {4, 4},
	FormatASTC4x4:     {4, 4},
	FormatASTCSRGB4x4: {4, 4},
	FormatASTC5x4:     {5, 4},
	FormatASTC5x5:     {5, 5},
	FormatASTC6x5:     {6, 5},
	FormatASTC6x6:     {6, 6},
	FormatASTC8x5:     {8, 5},
	FormatASTC8x6:     {8, 6},
	FormatASTC8x8:     {8, 8},
	FormatASTC10x5:    {10, 5},
	FormatASTC10x6:    {10, 6},
	FormatASTC10x8:    {10, 8},
	FormatASTC10x10:   {10, 10},
	FormatASTC12x10:   {12, 10},
	FormatASTC12x12:   {12, 12},
}

// texelSizes gives the uncompressed byte size of one texel for non-block
// formats.
var texelSizes = map[PixelFormat]int{
	FormatRGBA8:   4,
	FormatRGB8:    3,
	FormatRG8:     2,
	FormatR8:      1,
	FormatRGBA16F: 8,
	FormatRGBA32F: 16,
}

// IsCompressed reports whether f is a block-compressed format.
func (f PixelFormat) IsCompressed() bool {
	_, ok := compressedBlockSizes[f]
	return ok
}

// BlockSize returns the block footprint of a compressed format and true, or
// (0,0,false) for an uncompressed format.
func (f PixelFormat) BlockSize() (w, h int, ok bool) {
	b, ok := compressedBlockSizes[f]
	return b.w, b.h, ok
}

// TexelSize returns the per-texel byte size of an uncompressed format and
// true, or (0,false) for a compressed format.
func (f PixelFormat) TexelSize() (size int, ok bool) {
	s, ok := texelSizes[f]
	return s, ok
}
