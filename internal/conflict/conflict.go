// Package conflict is the conflict reader: a KV store of path-keyed merge
// conflict records, consulted by the add engine to mark conflicts
// resolved when a conflicted path is re-added.
package conflict

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"
	"strings"

	"github.com/trailmark/dvcs/internal/kv"
	"github.com/trailmark/dvcs/internal/merkle"
)

// MergeEntry is the other side's node for a conflicted path — what
// checkout_index would have written had the merge not conflicted.
type MergeEntry struct {
	Path        string
	CommitEntry *merkle.Node
}

// Conflict is one path's unresolved three-way-merge conflict.
type Conflict struct {
	Path       string
	MergeEntry MergeEntry
}

// Reader wraps the conflict KV store plus the MERGE_HEAD sidecar file
// holding the in-progress merge's other-side commit id as a single line.
type Reader struct {
	store         *kv.Store
	mergeHeadPath string
}

// Open wraps an opened KV handle and the path to the MERGE_HEAD file.
func Open(store *kv.Store, mergeHeadPath string) *Reader {
	return &Reader{store: store, mergeHeadPath: mergeHeadPath}
}

var errFoundOne = errors.New("conflict: found one")

// HasConflicts reports whether any conflict records exist.
func (r *Reader) HasConflicts() (bool, error) {
	err := r.store.Iterate(func(k, v []byte) error {
		return errFoundOne
	})
	if err == errFoundOne {
		return true, nil
	}
	return false, err
}

// ListConflicts returns every conflict record, in path order.
func (r *Reader) ListConflicts() ([]Conflict, error) {
	var out []Conflict
	err := r.store.Iterate(func(k, v []byte) error {
		c, err := decodeConflict(k, v)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	return out, err
}

// HasFile reports whether path has a pending conflict record.
func (r *Reader) HasFile(path string) (bool, error) {
	_, ok, err := r.store.Get([]byte(path))
	return ok, err
}

// GetConflict returns the conflict record at path, if any.
func (r *Reader) GetConflict(path string) (Conflict, bool, error) {
	v, ok, err := r.store.Get([]byte(path))
	if err != nil || !ok {
		return Conflict{}, false, err
	}
	c, err := decodeConflict([]byte(path), v)
	return c, err == nil, err
}

// PutConflict writes or overwrites a conflict record at path.
func (r *Reader) PutConflict(c Conflict) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.MergeEntry); err != nil {
		return err
	}
	return r.store.Put([]byte(c.Path), buf.Bytes())
}

// MarkResolved deletes the conflict record at path, resolving it.
func (r *Reader) MarkResolved(path string) error {
	return r.store.Delete([]byte(path))
}

// ConflictCommitID reads the other-side commit id from MERGE_HEAD.
func (r *Reader) ConflictCommitID() (commitID string, ok bool, err error) {
	return ReadMergeHead(r.mergeHeadPath)
}

func decodeConflict(key, value []byte) (Conflict, error) {
	var me MergeEntry
	if err := gob.NewDecoder(bytes.NewReader(value)).Decode(&me); err != nil {
		return Conflict{}, err
	}
	return Conflict{Path: string(key), MergeEntry: me}, nil
}

// WriteMergeHead writes the in-progress merge's other-side commit id as a
// single line to the MERGE_HEAD sidecar file.
func WriteMergeHead(path, commitID string) error {
	return os.WriteFile(path, []byte(commitID+"\n"), 0o644)
}

// ReadMergeHead reads the other-side commit id from MERGE_HEAD, or ("",
// false, nil) if no merge is in progress.
func ReadMergeHead(path string) (commitID string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	line := strings.TrimSpace(string(data))
	if line == "" {
		return "", false, nil
	}
	return line, true, nil
}

// ClearMergeHead removes the MERGE_HEAD sidecar file, if present.
func ClearMergeHead(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
