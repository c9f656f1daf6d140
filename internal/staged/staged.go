// Package staged is the staged DB: a KV store keyed by repo-relative path,
// holding one StagedEntry per pending addition, modification, or removal.
// Entries are written by the add engine and read back by commit/status.
package staged

import (
	"bytes"
	"encoding/gob"

	"github.com/trailmark/dvcs/internal/kv"
	"github.com/trailmark/dvcs/internal/merkle"
)

// Status is the classification a file or directory receives during add.
type Status uint8

const (
	Added Status = iota + 1
	Modified
	Unmodified
	Removed
)

func (s Status) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Unmodified:
		return "unmodified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Entry is a staged record: a status plus the node it describes. Node is
// nil for a plain directory placeholder entry written only to satisfy
// directory-coverage invariants.
type Entry struct {
	Status Status
	Node   *merkle.Node
}

// DB is the staged-entry KV store. Values are gob-encoded, chosen as a
// compact binary encoding that needs no schema registry beyond the types
// already in this package.
type DB struct {
	store *kv.Store
}

// Open wraps an opened KV handle as a staged DB.
func Open(store *kv.Store) *DB {
	return &DB{store: store}
}

// Put writes entry under path. Per invariant 2, callers must not call Put
// for Unmodified entries — the design keeps that check in the add engine
// rather than silently no-oping here, so a caller bug surfaces instead of
// vanishing into a staged-DB no-op.
func (db *DB) Put(path string, entry Entry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobEntry{Status: entry.Status, Node: entry.Node}); err != nil {
		return err
	}
	return db.store.Put([]byte(path), buf.Bytes())
}

type gobEntry struct {
	Status Status
	Node   *merkle.Node
}

// Get reads the staged entry at path, if any.
func (db *DB) Get(path string) (Entry, bool, error) {
	v, ok, err := db.store.Get([]byte(path))
	if err != nil || !ok {
		return Entry{}, false, err
	}
	var ge gobEntry
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&ge); err != nil {
		return Entry{}, false, err
	}
	return Entry{Status: ge.Status, Node: ge.Node}, true, nil
}

// Delete removes the staged entry at path, if present.
func (db *DB) Delete(path string) error {
	return db.store.Delete([]byte(path))
}

// PathEntry pairs a path with its staged entry, as returned by Status.
type PathEntry struct {
	Path  string
	Entry Entry
}

// Status returns every staged entry, in lexicographic path order.
func (db *DB) Status() ([]PathEntry, error) {
	var out []PathEntry
	err := db.store.Iterate(func(k, v []byte) error {
		var ge gobEntry
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&ge); err != nil {
			return err
		}
		out = append(out, PathEntry{Path: string(k), Entry: Entry{Status: ge.Status, Node: ge.Node}})
		return nil
	})
	return out, err
}

// Clear removes every staged entry.
func (db *DB) Clear() error {
	entries, err := db.Status()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := db.Delete(e.Path); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDirEntry returns the placeholder entry written for a directory
// that itself carries no node payload — only its coverage matters.
func DefaultDirEntry() Entry {
	return Entry{Status: Added}
}
