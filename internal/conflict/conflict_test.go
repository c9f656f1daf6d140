package conflict

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailmark/dvcs/internal/kv"
)

func openTestReader(t *testing.T) *Reader {
	t.Helper()
	s, err := kv.OpenRW(filepath.Join(t.TempDir(), "merge"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return Open(s, filepath.Join(t.TempDir(), "MERGE_HEAD"))
}

func TestHasConflicts_EmptyIsFalse(t *testing.T) {
	r := openTestReader(t)
	has, err := r.HasConflicts()
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPutGetMarkResolved(t *testing.T) {
	r := openTestReader(t)

	require.NoError(t, r.PutConflict(Conflict{Path: "a.txt", MergeEntry: MergeEntry{Path: "a.txt"}}))

	has, err := r.HasConflicts()
	require.NoError(t, err)
	assert.True(t, has)

	hasFile, err := r.HasFile("a.txt")
	require.NoError(t, err)
	assert.True(t, hasFile)

	c, ok, err := r.GetConflict("a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.txt", c.Path)

	require.NoError(t, r.MarkResolved("a.txt"))
	hasFile, err = r.HasFile("a.txt")
	require.NoError(t, err)
	assert.False(t, hasFile)
}

func TestListConflicts_Order(t *testing.T) {
	r := openTestReader(t)
	for _, p := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, r.PutConflict(Conflict{Path: p}))
	}

	list, err := r.ListConflicts()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a.txt", list[0].Path)
	assert.Equal(t, "b.txt", list[1].Path)
	assert.Equal(t, "c.txt", list[2].Path)
}

func TestMergeHead_WriteReadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MERGE_HEAD")

	_, ok, err := ReadMergeHead(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, WriteMergeHead(path, "01H000COMMIT"))
	id, ok, err := ReadMergeHead(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "01H000COMMIT", id)

	require.NoError(t, ClearMergeHead(path))
	_, ok, err = ReadMergeHead(path)
	require.NoError(t, err)
	assert.False(t, ok)
}
