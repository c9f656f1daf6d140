// Package hashing computes the content-addressing hashes used throughout
// the repository core: a 128-bit content hash for file bytes, a metadata
// hash for data-type-specific metadata blobs, and the combined hash the
// Merkle tree stores for each file node.
package hashing

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Size is the width of a content hash in bytes (128 bits). Truncating a
// BLAKE3 digest to 16 bytes keeps collision resistance far beyond what a
// local dataset repository will ever need while keeping hex hashes short.
const Size = 16

// Hash is a 128-bit content identifier, displayed as lowercase hex.
type Hash [Size]byte

// String returns the lowercase hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a lowercase hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != Size {
		return h, ErrInvalidHashLength
	}
	copy(h[:], b)
	return h, nil
}

func fromSum(sum [32]byte) Hash {
	var h Hash
	copy(h[:], sum[:Size])
	return h
}

// Bytes computes the content hash of an in-memory byte slice.
func Bytes(data []byte) Hash {
	return fromSum(blake3.Sum256(data))
}

// File streams a file's bytes and computes its content hash without
// loading the whole file into memory.
func File(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, err
	}
	defer f.Close()
	return Reader(f)
}

// Reader streams an io.Reader and computes its content hash.
func Reader(r io.Reader) (Hash, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return Hash{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return fromSum(sum), nil
}

// Metadata computes the hash of a serialized, data-type-specific metadata
// blob (e.g. a tabular schema). It is a distinct function from the content
// hash per spec: metadata and content are hashed independently, then
// combined.
func Metadata(blob []byte) Hash {
	return Bytes(blob)
}

// Combined computes H(metadata_hash ‖ content_hash) when metadata is
// present, or returns contentHash unchanged when it is not — matching the
// data model's "combined hash" definition.
func Combined(metadataHash *Hash, contentHash Hash) Hash {
	if metadataHash == nil {
		return contentHash
	}
	buf := make([]byte, 0, Size*2)
	buf = append(buf, metadataHash[:]...)
	buf = append(buf, contentHash[:]...)
	return Bytes(buf)
}

// Equal reports whether two hashes are equal, handling the "no hash yet"
// zero value the same way a nil pointer would in the source: a zero hash is
// only equal to another zero hash.
func Equal(a, b Hash) bool {
	return a == b
}
