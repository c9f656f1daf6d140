package merkle

import (
	"bytes"
	"encoding/gob"
	"errors"
	"time"

	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/kv"
)

// ErrCommitNotFound is returned when a commit ID has no record.
var ErrCommitNotFound = errors.New("merkle: commit not found")

// Commit is the minimal commit record the core consumes: id, parents, and
// enough to build a one-line display. Everything about the on-disk commit
// database beyond these fields is out of scope.
type Commit struct {
	ID         string
	ParentIDs  []string
	Message    string
	Author     string
	Timestamp  time.Time
	RootHash   hashing.Hash
	HasRootDir bool
}

// MessageFirstLine returns the first line of the commit message, used by
// the stash engine when composing "WIP on <branch>: <id> <msg>" text.
func (c Commit) MessageFirstLine() string {
	if i := bytes.IndexByte([]byte(c.Message), '\n'); i >= 0 {
		return c.Message[:i]
	}
	return c.Message
}

const (
	commitKeyPrefix = "c/"
	nodeKeyPrefix   = "n/"
)

// Tree reads and writes the commit/node KV database. Nodes are
// content-addressed: a node's key is the hash of its own canonical
// encoding, so identical subtrees across commits share one stored record.
type Tree struct {
	store *kv.Store
}

// Open wraps an already-opened KV handle (RO for read-only traversal
// during add, RW when a commit is being built during stash save).
func Open(store *kv.Store) *Tree {
	return &Tree{store: store}
}

func nodeGob(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobNode{
		Kind: n.Kind,
		File: n.File,
		Dir:  n.Dir,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type gobNode struct {
	Kind Kind
	File *FileNode
	Dir  *DirNode
}

// PutNode encodes n, derives its content-addressed key, stores it if
// absent, and returns the key hash. Storing the same node twice is a
// no-op past the first write, matching the Merkle DAG's structural
// sharing.
func (t *Tree) PutNode(n Node) (hashing.Hash, error) {
	enc, err := nodeGob(n)
	if err != nil {
		return hashing.Hash{}, err
	}
	h := hashing.Bytes(enc)
	key := append([]byte(nodeKeyPrefix), h[:]...)

	if _, ok, err := t.store.Get(key); err != nil {
		return hashing.Hash{}, err
	} else if ok {
		return h, nil
	}
	if err := t.store.Put(key, enc); err != nil {
		return hashing.Hash{}, err
	}
	return h, nil
}

// GetNode resolves a node by its content-addressed hash.
func (t *Tree) GetNode(h hashing.Hash) (*Node, error) {
	key := append([]byte(nodeKeyPrefix), h[:]...)
	v, ok, err := t.store.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var gn gobNode
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&gn); err != nil {
		return nil, err
	}
	return &Node{Kind: gn.Kind, File: gn.File, Dir: gn.Dir}, nil
}

// PutCommit stores a commit record under its ID.
func (t *Tree) PutCommit(c Commit) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return err
	}
	return t.store.Put([]byte(commitKeyPrefix+c.ID), buf.Bytes())
}

// GetCommit looks up a commit by ID.
func (t *Tree) GetCommit(id string) (Commit, error) {
	v, ok, err := t.store.Get([]byte(commitKeyPrefix + id))
	if err != nil {
		return Commit{}, err
	}
	if !ok {
		return Commit{}, ErrCommitNotFound
	}
	var c Commit
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&c); err != nil {
		return Commit{}, err
	}
	return c, nil
}

// Dir returns the directory node at path within commit's tree, with one
// level of children loaded. Returns nil (not an error) for a missing
// intermediate path or a fresh commit with no root directory yet.
func (t *Tree) Dir(commit Commit, path string) (*DirNode, error) {
	n, err := t.GetByPath(commit, path)
	if err != nil || n == nil {
		return nil, err
	}
	if n.Kind != KindDir {
		return nil, nil
	}
	return n.Dir, nil
}

// GetByPath walks the tree from commit's root, following path's "/"
// separated components, and returns the node found there — or nil if any
// intermediate component is missing.
func (t *Tree) GetByPath(commit Commit, path string) (*Node, error) {
	if !commit.HasRootDir {
		return nil, nil
	}

	rootNode, err := t.GetNode(commit.RootHash)
	if err != nil || rootNode == nil {
		return nil, err
	}
	if path == "" || path == "." {
		return rootNode, nil
	}

	cur := rootNode
	for _, part := range splitPath(path) {
		if cur.Kind != KindDir {
			return nil, nil
		}
		entry, ok := cur.Dir.Find(part)
		if !ok {
			return nil, nil
		}
		child, err := t.GetNode(entry.Hash)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, nil
		}
		cur = child
	}
	return cur, nil
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		parts = append(parts, path[start:])
	}
	return parts
}
