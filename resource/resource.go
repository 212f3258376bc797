package resource

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Kind identifies the tagged variant of a Resource, per SPEC_FULL.md §3.
type Kind uint32

const (
	KindArray Kind = iota
	KindTexture2D
	KindTexture3D
	KindTextureCube
	KindEffect
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "Array"
	case KindTexture2D:
		return "Texture2D"
	case KindTexture3D:
		return "Texture3D"
	case KindTextureCube:
		return "TextureCube"
	case KindEffect:
		return "Effect"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// CompressionLevel selects the LZ4 speed/ratio tradeoff used by Compress.
type CompressionLevel int

const (
	Realtime CompressionLevel = iota
	Offline
)

// ErrInvalidResource is returned by Create when a resource fails its
// validation contract (SPEC_FULL.md §4.B). DecodeMetadata and ReadFile do
// not run that validation and do not return this error.
var ErrInvalidResource = fmt.Errorf("resource: invalid resource")

// Resource is a tagged, content-addressed binary blob referenced by scenes:
// an Array, Texture2D/3D/Cube, or Effect. Once payload is set the hash is
// computed and frozen; Resource is otherwise immutable apart from its
// compressed/payload residency, which may be filled and dropped by
// Compress/Decompress and the resource manager's eviction policy.
type Resource struct {
	Kind      Kind
	Hash      ContentHash
	CacheFlag uint32
	Name      string

	Metadata Metadata // per-kind metadata, see metadata.go

	payload    []byte // immutable once set; may be nil if only compressed is resident
	compressed []byte // LZ4 block-compressed payload; may be nil if only payload is resident

	// uncompressedSize records the payload length for resources loaded from
	// disk with only compressed resident, so a later Decompress call does
	// not require the caller to know the size independently.
	uncompressedSize int
}

// Create builds a Resource from kind, metadata, and an uncompressed payload,
// computing and freezing its content hash. The metadata is validated against
// the payload per SPEC_FULL.md §4.B; a failure returns ErrInvalidResource.
func Create(kind Kind, metadata Metadata, payload []byte, cacheFlag uint32, name string) (*Resource, error) {
	if metadata.Kind() != kind {
		return nil, fmt.Errorf("resource: metadata kind %s does not match %s: %w", metadata.Kind(), kind, ErrInvalidResource)
	}
	if err := metadata.Validate(payload); err != nil {
		return nil, fmt.Errorf("resource: %w: %w", err, ErrInvalidResource)
	}
	metaBytes, err := EncodeMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("resource: encoding metadata: %w", err)
	}
	r := &Resource{
		Kind:      kind,
		CacheFlag: cacheFlag,
		Name:      name,
		Metadata:  metadata,
		payload:   payload,
	}
	r.Hash = HashOf(metaBytes, payload)
	return r, nil
}

// Payload returns the uncompressed payload, or nil if only the compressed
// representation is currently resident.
func (r *Resource) Payload() []byte { return r.payload }

// Compressed returns the LZ4-compressed payload, or nil if only the
// uncompressed representation is currently resident.
func (r *Resource) Compressed() []byte { return r.compressed }

// HasPayload reports whether the uncompressed representation is resident.
func (r *Resource) HasPayload() bool { return r.payload != nil }

// HasCompressed reports whether the compressed representation is resident.
func (r *Resource) HasCompressed() bool { return r.compressed != nil }

// Compress fills the compressed slot from payload using LZ4 at the given
// speed/ratio tradeoff. Idempotent: a no-op if compressed is already
// resident. Requires payload to be resident.
func (r *Resource) Compress(level CompressionLevel) error {
	if r.compressed != nil {
		return nil
	}
	if r.payload == nil {
		return fmt.Errorf("resource: cannot compress %s, no payload resident", r.Hash)
	}
	buf := make([]byte, lz4.CompressBlockBound(len(r.payload)))
	var n int
	var err error
	if level == Offline {
		hc := &lz4.CompressorHC{Level: lz4.Level9}
		n, err = hc.CompressBlock(r.payload, buf)
	} else {
		var c lz4.Compressor
		n, err = c.CompressBlock(r.payload, buf)
	}
	if err != nil {
		return fmt.Errorf("resource: lz4 compress %s: %w", r.Hash, err)
	}
	r.uncompressedSize = len(r.payload)
	if n == 0 && len(r.payload) > 0 {
		// Incompressible input: lz4 signals this by returning n == 0.
		// The compressed slot stays empty, so WriteFile stores the payload
		// as-is with is_compressed=false.
		return nil
	}
	r.compressed = append([]byte(nil), buf[:n]...)
	return nil
}

// Decompress fills the payload slot from compressed. Idempotent: a no-op if
// payload is already resident. Requires compressed to be resident and the
// uncompressed size to be known; pass 0 to use the size recorded by Compress
// or SetUncompressedSize.
func (r *Resource) Decompress(uncompressedSize int) error {
	if r.payload != nil {
		return nil
	}
	if r.compressed == nil {
		return fmt.Errorf("resource: cannot decompress %s, no compressed data resident", r.Hash)
	}
	if uncompressedSize == 0 {
		uncompressedSize = r.uncompressedSize
	}
	if uncompressedSize == 0 {
		return fmt.Errorf("resource: cannot decompress %s, unknown uncompressed size", r.Hash)
	}
	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(r.compressed, out)
	if err != nil {
		return fmt.Errorf("resource: lz4 decompress %s: %w", r.Hash, err)
	}
	r.payload = out[:n]
	return nil
}

// DropCompressed releases the compressed representation, e.g. after a
// successful GPU upload from payload made it redundant.
func (r *Resource) DropCompressed() { r.compressed = nil }

// DropPayload releases the uncompressed representation, keeping only
// compressed bytes resident (e.g. to save host memory once a resource is
// cold). Callers must not call this unless compressed is resident.
func (r *Resource) DropPayload() {
	r.uncompressedSize = len(r.payload)
	r.payload = nil
}

// SetUncompressedSize records the decompressed payload length for a
// Resource whose only resident representation is compressed (e.g. freshly
// loaded from a resource file), so a later Decompress call can omit it.
func (r *Resource) SetUncompressedSize(n int) { r.uncompressedSize = n }
