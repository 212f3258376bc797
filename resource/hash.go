package resource

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ContentHash is the 128-bit content-addressed identity of a Resource,
// computed from its canonical metadata bytes followed by its uncompressed
// payload bytes. Two resources with identical metadata and payload always
// hash equal; differing by even one byte produces a distinct hash with
// cryptographic-grade collision resistance (SPEC_FULL.md §3).
type ContentHash struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether h is the zero hash (used as a not-yet-computed
// sentinel; a real resource payload hashing to exactly zero is
// astronomically unlikely and never produced by HashOf).
func (h ContentHash) IsZero() bool { return h.Hi == 0 && h.Lo == 0 }

func (h ContentHash) String() string { return fmt.Sprintf("%016x%016x", h.Hi, h.Lo) }

// HashOf computes the ContentHash of metadata||payload using a 16-byte
// BLAKE2b digest, split into two big-endian uint64 halves. BLAKE2b is used
// in preference to truncating a wider hash because it supports a native
// 16-byte output size directly, grounded on cogentcore-core's dependency on
// golang.org/x/crypto.
func HashOf(metadata, payload []byte) ContentHash {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only fails for an unsupported digest size or bad key length;
		// both are compile-time constants here.
		panic(err)
	}
	h.Write(metadata)
	h.Write(payload)
	sum := h.Sum(nil)
	return ContentHash{
		Hi: binary.BigEndian.Uint64(sum[0:8]),
		Lo: binary.BigEndian.Uint64(sum[8:16]),
	}
}
