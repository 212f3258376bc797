package resource

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/kestrel-render/kestrel/codec"
)

// Metadata is the per-kind descriptor serialized ahead of a Resource's
// payload in both the wire action stream and the resource file format
// (SPEC_FULL.md §4.B, §6).
type Metadata interface {
	Kind() Kind
	Validate(payload []byte) error
	encode(w *codec.Writer)
}

// ArrayMetadata describes an Array resource (index or vertex buffer).
type ArrayMetadata struct {
	ElementType  uint32
	ElementCount uint32
}

func (m ArrayMetadata) Kind() Kind { return KindArray }

func (m ArrayMetadata) Validate(payload []byte) error {
	if m.ElementCount == 0 {
		return fmt.Errorf("array metadata: element_count must be >= 1")
	}
	return nil
}

func (m ArrayMetadata) encode(w *codec.Writer) {
	w.WriteU32(m.ElementType)
	w.WriteU32(m.ElementCount)
}

func decodeArrayMetadata(r *codec.Reader) (ArrayMetadata, error) {
	elemType, err := r.ReadU32()
	if err != nil {
		return ArrayMetadata{}, err
	}
	count, err := r.ReadU32()
	if err != nil {
		return ArrayMetadata{}, err
	}
	return ArrayMetadata{ElementType: elemType, ElementCount: count}, nil
}

// TextureMetadata describes a Texture2D, Texture3D, or TextureCube resource.
// Depth is the voxel depth for Texture3D or the face size for TextureCube;
// it is unused (1) for Texture2D.
type TextureMetadata struct {
	TexKind      Kind // KindTexture2D, KindTexture3D, or KindTextureCube
	Width        uint32
	Height       uint32
	Depth        uint32
	Format       PixelFormat
	Swizzle      [4]uint8
	MipCount     uint32
	MipByteSizes []uint32
}

func (m TextureMetadata) Kind() Kind { return m.TexKind }

// mipFaceCount returns how many concatenated mip chains the payload layout
// contains: 1 for 2D/3D, 6 (face-major +X,-X,+Y,-Y,+Z,-Z) for Cube.
func (m TextureMetadata) mipFaceCount() int {
	if m.TexKind == KindTextureCube {
		return 6
	}
	return 1
}

func (m TextureMetadata) Validate(payload []byte) error {
	if m.Width < 1 || m.Height < 1 || m.Depth < 1 {
		return fmt.Errorf("texture metadata: dimensions must be >= 1")
	}
	maxDim := m.Width
	if m.Height > maxDim {
		maxDim = m.Height
	}
	if m.TexKind == KindTexture3D && m.Depth > maxDim {
		maxDim = m.Depth
	}
	maxMips := uint32(bits.Len32(maxDim)) // floor(log2(maxDim)) + 1, for maxDim >= 1
	if m.MipCount > maxMips {
		return fmt.Errorf("texture metadata: mip_count %d exceeds max %d for dimensions %dx%dx%d: %w",
			m.MipCount, maxMips, m.Width, m.Height, m.Depth, ErrInvalidResource)
	}
	if uint32(len(m.MipByteSizes)) != m.MipCount*uint32(m.mipFaceCount()) {
		return fmt.Errorf("texture metadata: mip_byte_sizes has %d entries, want %d",
			len(m.MipByteSizes), m.MipCount*uint32(m.mipFaceCount()))
	}

	blockW, blockH, compressed := m.Format.BlockSize()
	texel, _ := m.Format.TexelSize()

	idx := 0
	for face := 0; face < m.mipFaceCount(); face++ {
		w, h, d := m.Width, m.Height, m.Depth
		for mip := uint32(0); mip < m.MipCount; mip++ {
			mw, mh := max1(w>>mip), max1(h>>mip)
			if compressed {
				if mw%uint32(blockW) != 0 || mh%uint32(blockH) != 0 {
					return fmt.Errorf("texture metadata: mip %d dims %dx%d not a multiple of block size %dx%d: %w",
						mip, mw, mh, blockW, blockH, ErrInvalidResource)
				}
			} else {
				md := max1(d >> mip)
				want := uint64(mw) * uint64(mh) * uint64(md) * uint64(texel)
				if uint64(m.MipByteSizes[idx]) < want {
					return fmt.Errorf("texture metadata: mip %d declared size %d smaller than required %d: %w",
						mip, m.MipByteSizes[idx], want, ErrInvalidResource)
				}
			}
			idx++
		}
	}
	return nil
}

func max1(v uint32) uint32 {
	if v < 1 {
		return 1
	}
	return v
}

func (m TextureMetadata) encode(w *codec.Writer) {
	w.WriteU32(m.Width)
	w.WriteU32(m.Height)
	w.WriteU32(m.Depth)
	w.WriteU32(uint32(m.Format))
	w.WriteBytes(m.Swizzle[:])
	w.WriteU32(m.MipCount)
	w.WriteU32(uint32(len(m.MipByteSizes)))
	for _, s := range m.MipByteSizes {
		w.WriteU32(s)
	}
}

func decodeTextureMetadata(r *codec.Reader, texKind Kind) (TextureMetadata, error) {
	var m TextureMetadata
	m.TexKind = texKind
	var err error
	if m.Width, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Height, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Depth, err = r.ReadU32(); err != nil {
		return m, err
	}
	format, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	m.Format = PixelFormat(format)
	swizzle, err := r.ReadBytes(4)
	if err != nil {
		return m, err
	}
	copy(m.Swizzle[:], swizzle)
	if m.MipCount, err = r.ReadU32(); err != nil {
		return m, err
	}
	n, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	m.MipByteSizes = make([]uint32, n)
	for i := range m.MipByteSizes {
		if m.MipByteSizes[i], err = r.ReadU32(); err != nil {
			return m, err
		}
	}
	return m, nil
}

// EffectInputSemantics distinguishes the role of a shader input.
type EffectInputSemantics uint32

// EffectInput describes one uniform or attribute input to an Effect's
// shaders.
type EffectInput struct {
	Name             string
	ElementCount     uint32
	DataType         uint32
	Semantics        EffectInputSemantics
	UniformBufferBinding uint32 // codec.NoneSentinel[uint32]() when absent
	UBOElementSize   uint32
	UBOFieldOffset   uint32
}

// GeometryPrimitive is the optional geometry-shader input primitive type.
// GeometryPrimitiveNone (the max representable value) means no geometry
// shader is present.
type GeometryPrimitive uint8

const GeometryPrimitiveNone = GeometryPrimitive(0xFF)

// EffectOffsets locates each shader source/blob within the Effect's payload.
// End marks the byte past the last populated section so that sizes can be
// derived as offsets[i+1]-offsets[i].
type EffectOffsets struct {
	VertexSrc     uint32
	FragmentSrc   uint32
	GeometrySrc   uint32
	VertexSPIRV   uint32
	FragmentSPIRV uint32
	GeometrySPIRV uint32
	End           uint32
}

// EffectMetadata describes an Effect resource: a vertex+fragment shader
// pair with an optional geometry stage, optional SPIR-V blobs alongside the
// GLSL/WGSL sources, and the uniform/attribute inputs they bind.
type EffectMetadata struct {
	Uniforms   []EffectInput
	Attributes []EffectInput
	Offsets    EffectOffsets
	GeomInput  GeometryPrimitive
}

func (m EffectMetadata) Kind() Kind { return KindEffect }

func (m EffectMetadata) Validate(payload []byte) error {
	if m.Offsets.End > uint32(len(payload)) {
		return fmt.Errorf("effect metadata: offsets.end %d exceeds payload length %d: %w",
			m.Offsets.End, len(payload), ErrInvalidResource)
	}
	offs := []uint32{m.Offsets.VertexSrc, m.Offsets.FragmentSrc, m.Offsets.GeometrySrc,
		m.Offsets.VertexSPIRV, m.Offsets.FragmentSPIRV, m.Offsets.GeometrySPIRV}
	prev := uint32(0)
	for _, o := range offs {
		if o < prev {
			return fmt.Errorf("effect metadata: section offsets must be non-decreasing: %w", ErrInvalidResource)
		}
		prev = o
	}
	if m.GeomInput != GeometryPrimitiveNone && m.Offsets.GeometrySrc == m.Offsets.VertexSPIRV && m.Offsets.GeometrySrc == 0 {
		// A declared geometry stage with no source bytes reserved is allowed
		// only via SPIR-V; nothing further to check here beyond offsets.
		_ = math.MaxUint32
	}
	return nil
}

func (m EffectMetadata) encode(w *codec.Writer) {
	w.WriteU32(uint32(len(m.Uniforms)))
	for _, u := range m.Uniforms {
		encodeEffectInput(w, u)
	}
	w.WriteU32(uint32(len(m.Attributes)))
	for _, a := range m.Attributes {
		encodeEffectInput(w, a)
	}
	w.WriteU32(m.Offsets.VertexSrc)
	w.WriteU32(m.Offsets.FragmentSrc)
	w.WriteU32(m.Offsets.GeometrySrc)
	w.WriteU32(m.Offsets.VertexSPIRV)
	w.WriteU32(m.Offsets.FragmentSPIRV)
	w.WriteU32(m.Offsets.GeometrySPIRV)
	w.WriteU32(m.Offsets.End)
	w.WriteU8(uint8(m.GeomInput))
}

func encodeEffectInput(w *codec.Writer, in EffectInput) {
	w.WriteString(in.Name)
	w.WriteU32(in.ElementCount)
	w.WriteU32(in.DataType)
	w.WriteU32(uint32(in.Semantics))
	w.WriteU32(in.UniformBufferBinding)
	w.WriteU32(in.UBOElementSize)
	w.WriteU32(in.UBOFieldOffset)
}

func decodeEffectInput(r *codec.Reader) (EffectInput, error) {
	var in EffectInput
	var err error
	if in.Name, err = r.ReadString(); err != nil {
		return in, err
	}
	if in.ElementCount, err = r.ReadU32(); err != nil {
		return in, err
	}
	if in.DataType, err = r.ReadU32(); err != nil {
		return in, err
	}
	sem, err := r.ReadU32()
	if err != nil {
		return in, err
	}
	in.Semantics = EffectInputSemantics(sem)
	if in.UniformBufferBinding, err = r.ReadU32(); err != nil {
		return in, err
	}
	if in.UBOElementSize, err = r.ReadU32(); err != nil {
		return in, err
	}
	if in.UBOFieldOffset, err = r.ReadU32(); err != nil {
		return in, err
	}
	return in, nil
}

func decodeEffectMetadata(r *codec.Reader) (EffectMetadata, error) {
	var m EffectMetadata
	n, err := r.ReadU32()
	if err != nil {
		return m, err
	}
	m.Uniforms = make([]EffectInput, n)
	for i := range m.Uniforms {
		if m.Uniforms[i], err = decodeEffectInput(r); err != nil {
			return m, err
		}
	}
	n, err = r.ReadU32()
	if err != nil {
		return m, err
	}
	m.Attributes = make([]EffectInput, n)
	for i := range m.Attributes {
		if m.Attributes[i], err = decodeEffectInput(r); err != nil {
			return m, err
		}
	}
	if m.Offsets.VertexSrc, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.FragmentSrc, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.GeometrySrc, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.VertexSPIRV, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.FragmentSPIRV, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.GeometrySPIRV, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Offsets.End, err = r.ReadU32(); err != nil {
		return m, err
	}
	geomInput, err := r.ReadU8()
	if err != nil {
		return m, err
	}
	m.GeomInput = GeometryPrimitive(geomInput)
	return m, nil
}

// EncodeMetadata serializes m's kind tag followed by its per-kind layout.
func EncodeMetadata(m Metadata) ([]byte, error) {
	w := codec.NewWriter()
	w.WriteU32(uint32(m.Kind()))
	m.encode(w)
	return w.Bytes(), nil
}

// DecodeMetadata reads a kind tag followed by the matching per-kind layout.
func DecodeMetadata(r *codec.Reader) (Metadata, error) {
	kindVal, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	kind := Kind(kindVal)
	switch kind {
	case KindArray:
		return decodeArrayMetadata(r)
	case KindTexture2D, KindTexture3D, KindTextureCube:
		return decodeTextureMetadata(r, kind)
	case KindEffect:
		return decodeEffectMetadata(r)
	default:
		return nil, fmt.Errorf("resource: unknown metadata kind %d: %w", kindVal, codec.ErrInvalidEncoding)
	}
}
