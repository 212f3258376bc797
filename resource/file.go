package resource

import (
	"fmt"
	"io"

	"github.com/kestrel-render/kestrel/codec"
)

// fileMagic is the 4-byte magic stamped at the start of a resource file,
// per SPEC_FULL.md §6 ('R','S','R','F').
var fileMagic = [4]byte{'R', 'S', 'R', 'F'}

// FileVersion is the resource file format version written by WriteFile.
const FileVersion uint32 = 1

// WriteFile serializes resources to w in the §6 resource file layout. Each
// resource is written compressed when a compressed representation is
// resident (preferring compressed to keep files small); otherwise its
// uncompressed payload is written with is_compressed=false.
func WriteFile(w io.Writer, resources []*Resource) error {
	out := codec.NewWriter()
	out.WriteBytes(fileMagic[:])
	out.WriteU32(FileVersion)
	out.WriteU32(uint32(len(resources)))

	for _, r := range resources {
		metaBytes, err := EncodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("resource: encode metadata for %s: %w", r.Hash, err)
		}

		stored := r.payload
		isCompressed := false
		uncompressedSize := len(r.payload)
		if r.compressed != nil {
			stored = r.compressed
			isCompressed = true
		}
		if stored == nil {
			return fmt.Errorf("resource: %s has no resident representation to write", r.Hash)
		}
		if isCompressed && r.payload != nil {
			uncompressedSize = len(r.payload)
		} else if isCompressed && r.uncompressedSize > 0 {
			uncompressedSize = r.uncompressedSize
		} else if isCompressed {
			return fmt.Errorf("resource: %s has compressed data but unknown uncompressed size", r.Hash)
		}

		out.WriteU64(r.Hash.Hi)
		out.WriteU64(r.Hash.Lo)
		out.WriteU32(uint32(r.Kind))
		out.WriteU32(r.CacheFlag)
		out.WriteBool(isCompressed)
		out.WriteU32(uint32(uncompressedSize))
		out.WriteU32(uint32(len(stored)))
		out.WriteU32(uint32(len(metaBytes)))
		out.WriteBytes(metaBytes)
		out.WriteBytes(stored)
	}

	_, err := w.Write(out.Bytes())
	return err
}

// ReadFile parses a resource file previously written by WriteFile. Resources
// are returned with whichever representation (compressed or uncompressed)
// was stored on disk resident; callers wanting the other representation
// call Decompress/Compress explicitly.
func ReadFile(data []byte) ([]*Resource, error) {
	r := codec.NewReader(data)
	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("resource: reading file magic: %w", err)
	}
	if string(magic) != string(fileMagic[:]) {
		return nil, fmt.Errorf("resource: bad file magic %q: %w", magic, codec.ErrInvalidEncoding)
	}
	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if version != FileVersion {
		return nil, fmt.Errorf("resource: unsupported file version %d", version)
	}
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	out := make([]*Resource, 0, count)
	for i := uint32(0); i < count; i++ {
		res, err := readOneResource(r)
		if err != nil {
			return nil, fmt.Errorf("resource: reading entry %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func readOneResource(r *codec.Reader) (*Resource, error) {
	hi, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	lo, err := r.ReadU64()
	if err != nil {
		return nil, err
	}
	kindVal, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	cacheFlag, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	isCompressed, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	uncompressedSize, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	storedSize, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	metaLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	metaReaderBytes, err := r.ReadBytes(int(metaLen))
	if err != nil {
		return nil, err
	}
	metaReader := codec.NewReader(metaReaderBytes)
	metadata, err := DecodeMetadata(metaReader)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	stored, err := r.ReadBytes(int(storedSize))
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Kind:      Kind(kindVal),
		Hash:      ContentHash{Hi: hi, Lo: lo},
		CacheFlag: cacheFlag,
		Metadata:  metadata,
	}
	if isCompressed {
		res.compressed = stored
		res.uncompressedSize = int(uncompressedSize)
	} else {
		res.payload = stored
	}
	return res, nil
}
