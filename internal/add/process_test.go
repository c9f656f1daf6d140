package add

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/kv"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/staged"
)

type fakeConflictReader struct {
	conflicted   map[string]bool
	resolvedPath []string
}

func (f *fakeConflictReader) HasFile(path string) (bool, error) {
	return f.conflicted[path], nil
}

func (f *fakeConflictReader) MarkResolved(path string) error {
	f.resolvedPath = append(f.resolvedPath, path)
	delete(f.conflicted, path)
	return nil
}

func newTestDB(t *testing.T) *staged.DB {
	t.Helper()
	store, err := kv.OpenRW(filepath.Join(t.TempDir(), "staged.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return staged.Open(store)
}

func newTestStore(t *testing.T) *objstore.Store {
	t.Helper()
	s, err := objstore.Open(filepath.Join(t.TempDir(), "versions"))
	require.NoError(t, err)
	return s
}

func TestProcessAddFile_AddedFileWritesStagedEntryAndVersion(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data", "a.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	content := []byte("hello\n")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	db := newTestDB(t)
	versions := newTestStore(t)
	seen := NewSeenDirs()

	status, err := DetermineFileStatus(nil, p, Options{})
	require.NoError(t, err)

	require.NoError(t, ProcessAddFile(db, nil, versions, seen, "data/a.txt", status))

	entry, ok, err := db.Get("data/a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, staged.Added, entry.Status)
	require.NotNil(t, entry.Node)
	require.NotNil(t, entry.Node.File)
	assert.Equal(t, hashing.Bytes(content), entry.Node.File.Hash)
	assert.True(t, versions.Exists(hashing.Bytes(content)))

	// Ancestor directories must also get coverage entries (invariant 3).
	for _, dirPath := range []string{"data", ""} {
		dirEntry, ok, err := db.Get(dirPath)
		require.NoError(t, err)
		require.True(t, ok, "expected ancestor dir entry for %q", dirPath)
		assert.Equal(t, staged.Added, dirEntry.Status)
	}
}

func TestProcessAddFile_UnmodifiedShortCircuitsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	content := []byte("hello\n")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	db := newTestDB(t)
	versions := newTestStore(t)
	seen := NewSeenDirs()

	prev := &merkle.FileNode{Hash: hashing.Bytes(content), NumBytes: int64(len(content))}
	status, err := DetermineFileStatus(prev, p, Options{})
	require.NoError(t, err)
	require.Equal(t, staged.Unmodified, status.Status)

	require.NoError(t, ProcessAddFile(db, nil, versions, seen, "a.txt", status))

	_, ok, err := db.Get("a.txt")
	require.NoError(t, err)
	assert.False(t, ok, "an unmodified file must not get a staged entry")

	_, ok, err = db.Get("")
	require.NoError(t, err)
	assert.False(t, ok, "unmodified short-circuit must not write ancestor dir entries either")
}

func TestProcessAddFile_ConflictResolutionFlipsUnmodifiedToModified(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	content := []byte("hello\n")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	db := newTestDB(t)
	versions := newTestStore(t)
	seen := NewSeenDirs()

	// Content is byte-identical to prev, so status alone says Unmodified,
	// but a pending conflict on this path means the working-tree content
	// is the user's conflict resolution and must be (re)staged.
	prev := &merkle.FileNode{Hash: hashing.Bytes(content), NumBytes: int64(len(content))}
	status, err := DetermineFileStatus(prev, p, Options{})
	require.NoError(t, err)
	require.Equal(t, staged.Unmodified, status.Status)

	reader := &fakeConflictReader{conflicted: map[string]bool{"a.txt": true}}
	require.NoError(t, ProcessAddFile(db, reader, versions, seen, "a.txt", status))

	entry, ok, err := db.Get("a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, staged.Modified, entry.Status)
	assert.Equal(t, []string{"a.txt"}, reader.resolvedPath)
}

func TestProcessAddFile_NonRegularFileWritesDefaultDirEntry(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	db := newTestDB(t)
	versions := newTestStore(t)
	seen := NewSeenDirs()

	status := FileStatusResult{DataPath: link, Status: staged.Added}
	require.NoError(t, ProcessAddFile(db, nil, versions, seen, "link.txt", status))

	entry, ok, err := db.Get("link.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, entry.Node)
	assert.Equal(t, staged.Added, entry.Status)
}

func TestProcessAddFile_TabularMetadataAnnotationSurvivesReadd(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(p, []byte("id,name\n1,a\n"), 0o644))

	db := newTestDB(t)
	versions := newTestStore(t)
	seen := NewSeenDirs()

	status, err := DetermineFileStatus(nil, p, Options{})
	require.NoError(t, err)
	require.NoError(t, ProcessAddFile(db, nil, versions, seen, "data.csv", status))

	entry, ok, err := db.Get("data.csv")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, entry.Node.File)

	meta, err := DecodeTabularMetadata(entry.Node.File.Metadata)
	require.NoError(t, err)
	require.Len(t, meta.Fields, 2)
	meta.Fields[1].Annotation = "person's name"
	annotated, err := EncodeTabularMetadata(meta)
	require.NoError(t, err)

	prevNode := entry.Node.File
	prevNode.Metadata = annotated

	// Re-add with the same header and changed rows (renamed or reordered
	// columns are out of scope here) to force a fresh metadata computation.
	require.NoError(t, os.WriteFile(p, []byte("id,name\n1,b\n2,c\n"), 0o644))
	status2, err := DetermineFileStatus(prevNode, p, Options{})
	require.NoError(t, err)
	require.Equal(t, staged.Modified, status2.Status)

	require.NoError(t, ProcessAddFile(db, nil, versions, seen, "data.csv", status2))
	entry2, ok, err := db.Get("data.csv")
	require.NoError(t, err)
	require.True(t, ok)

	meta2, err := DecodeTabularMetadata(entry2.Node.File.Metadata)
	require.NoError(t, err)
	require.Len(t, meta2.Fields, 2)
	assert.Equal(t, "person's name", meta2.Fields[1].Annotation)
}
