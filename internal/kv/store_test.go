package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRW_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "deeper", "staged")

	s, err := OpenRW(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = filepath.Abs(dbPath)
	require.NoError(t, err)
}

func TestPutGetDelete(t *testing.T) {
	s, err := OpenRW(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put([]byte("a"), []byte("1")))

	v, ok, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	_, ok, err = s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Delete([]byte("a")))
	_, ok, err = s.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIterate_LexicographicOrder(t *testing.T) {
	s, err := OpenRW(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer s.Close()

	keys := []string{"c", "a", "b", "aa"}
	for _, k := range keys {
		require.NoError(t, s.Put([]byte(k), []byte("v")))
	}

	var got []string
	require.NoError(t, s.Iterate(func(k, v []byte) error {
		got = append(got, string(k))
		return nil
	}))

	assert.Equal(t, []string{"a", "aa", "b", "c"}, got)
}

func TestIteratePrefix(t *testing.T) {
	s, err := OpenRW(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer s.Close()

	for _, k := range []string{"data/a.csv", "data/b.csv", "meta/a.json"} {
		require.NoError(t, s.Put([]byte(k), []byte("v")))
	}

	var got []string
	require.NoError(t, s.IteratePrefix([]byte("data/"), func(k, v []byte) error {
		got = append(got, string(k))
		return nil
	}))

	assert.Equal(t, []string{"data/a.csv", "data/b.csv"}, got)
}

func TestOpenRO_EmptyDatabaseBootstraps(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	ro, err := OpenRO(dbPath)
	require.NoError(t, err)
	defer ro.Close()

	_, ok, err := ro.Get([]byte("anything"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRO_PutReturnsErrReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	ro, err := OpenRO(dbPath)
	require.NoError(t, err)
	defer ro.Close()

	err = ro.Put([]byte("a"), []byte("1"))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestMultipleReadOnlyHandlesCoexist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	rw, err := OpenRW(dbPath)
	require.NoError(t, err)
	require.NoError(t, rw.Put([]byte("k"), []byte("v")))
	require.NoError(t, rw.Close())

	ro1, err := OpenRO(dbPath)
	require.NoError(t, err)
	defer ro1.Close()

	ro2, err := OpenRO(dbPath)
	require.NoError(t, err)
	defer ro2.Close()

	v1, ok1, err := ro1.Get([]byte("k"))
	require.NoError(t, err)
	v2, ok2, err := ro2.Get([]byte("k"))
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, v1, v2)
}
