package hashing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBytes_Deterministic(t *testing.T) {
	a := Bytes([]byte("hello"))
	b := Bytes([]byte("hello"))
	if a != b {
		t.Fatalf("expected equal hashes for identical content, got %s != %s", a, b)
	}
}

func TestBytes_DifferentContentDifferentHash(t *testing.T) {
	a := Bytes([]byte("hello"))
	b := Bytes([]byte("world"))
	if a == b {
		t.Fatalf("expected different hashes for different content")
	}
}

func TestFile_MatchesBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	content := []byte("the quick brown fox")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := File(path)
	if err != nil {
		t.Fatal(err)
	}
	fromBytes := Bytes(content)

	if fromFile != fromBytes {
		t.Fatalf("file hash %s != bytes hash %s", fromFile, fromBytes)
	}
}

func TestParseHash_RoundTrip(t *testing.T) {
	h := Bytes([]byte("round trip"))
	parsed, err := ParseHash(h.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != h {
		t.Fatalf("round-tripped hash mismatch")
	}
}

func TestParseHash_InvalidLength(t *testing.T) {
	if _, err := ParseHash("abcd"); err != ErrInvalidHashLength {
		t.Fatalf("expected ErrInvalidHashLength, got %v", err)
	}
}

func TestCombined_NoMetadataEqualsContentHash(t *testing.T) {
	content := Bytes([]byte("data"))
	combined := Combined(nil, content)
	if combined != content {
		t.Fatalf("expected combined hash to equal content hash when metadata is absent")
	}
}

func TestCombined_WithMetadataDiffersFromContentHash(t *testing.T) {
	content := Bytes([]byte("data"))
	meta := Metadata([]byte("schema-v1"))
	combined := Combined(&meta, content)
	if combined == content {
		t.Fatalf("expected combined hash to differ from content hash when metadata is present")
	}

	// Same metadata + same content must be deterministic.
	combined2 := Combined(&meta, content)
	if combined != combined2 {
		t.Fatalf("expected combined hash to be deterministic")
	}
}
