// Package merkle is the Merkle tree reader: it materializes DirNode and
// FileNode records for a commit and answers path lookups. Nodes form a
// content-addressed DAG — a node's storage key is the hash of its own
// canonical encoding, so identical subtrees across commits share storage
// without the reader needing to know that.
//
// Per the polymorphic-node design note, FileNode and DirNode are not a
// class hierarchy; Node is a tagged union and callers switch on Kind.
package merkle

import "github.com/trailmark/dvcs/internal/hashing"

// Kind discriminates the two node variants.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// DataType is the data-type classification a FileNode carries, derived
// from extension and content sniffing by the add engine.
type DataType string

const (
	DataTypeBinary  DataType = "binary"
	DataTypeTabular DataType = "tabular"
	DataTypeImage   DataType = "image"
	DataTypeAudio   DataType = "audio"
	DataTypeVideo   DataType = "video"
	DataTypeText    DataType = "text"
)

// FileNode is the Merkle-tree leaf for a single file.
type FileNode struct {
	Name         string
	Hash         hashing.Hash
	CombinedHash hashing.Hash
	MetadataHash *hashing.Hash

	NumBytes int64

	ModSeconds     int64
	ModNanoseconds int64

	DataType  DataType
	MimeType  string
	Extension string

	// Metadata is a serialized, data-type-specific blob (e.g. a tabular
	// schema with field annotations). Nil when the file carries none.
	Metadata []byte
}

// DirEntry is one child reference inside a DirNode: a name, the child's
// kind, and the hash under which the child node itself is stored.
type DirEntry struct {
	Name string
	Kind Kind
	Hash hashing.Hash
}

// DirNode is a directory leaf: a sorted, unique set of child entries. Only
// one level is ever loaded eagerly; descending further means resolving a
// child entry's hash through the tree reader again.
type DirNode struct {
	Entries []DirEntry
}

// Find returns the entry named name, if present.
func (d *DirNode) Find(name string) (DirEntry, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return DirEntry{}, false
}

// Node is a tagged union over the two variants the Merkle tree stores.
// Exactly one of File/Dir is non-nil, selected by Kind.
type Node struct {
	Kind Kind
	File *FileNode
	Dir  *DirNode
}

// FileNodeOf wraps a FileNode in a Node envelope.
func FileNodeOf(f *FileNode) Node {
	return Node{Kind: KindFile, File: f}
}

// DirNodeOf wraps a DirNode in a Node envelope.
func DirNodeOf(d *DirNode) Node {
	return Node{Kind: KindDir, Dir: d}
}
