package stash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailmark/dvcs/internal/merkle"
)

func testSlots() []Entry {
	return []Entry{
		{Name: "stash@{0}", RefName: refName(0), CommitID: "aaaa1111", Commit: merkle.Commit{ID: "aaaa1111"}},
		{Name: "stash@{1}", RefName: refName(1), CommitID: "bbbb2222", Commit: merkle.Commit{ID: "bbbb2222"}},
	}
}

func TestResolveStashID_Default(t *testing.T) {
	idx, err := ResolveStashID(testSlots(), "")
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestResolveStashID_BraceForm(t *testing.T) {
	idx, err := ResolveStashID(testSlots(), "stash@{1}")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveStashID_BareIndex(t *testing.T) {
	idx, err := ResolveStashID(testSlots(), "1")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveStashID_RefName(t *testing.T) {
	idx, err := ResolveStashID(testSlots(), refName(1))
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveStashID_CommitPrefix(t *testing.T) {
	idx, err := ResolveStashID(testSlots(), "bbbb")
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveStashID_NotFound(t *testing.T) {
	_, err := ResolveStashID(testSlots(), "stash@{5}")
	assert.Error(t, err)
}

func TestResolveStashID_UnknownPrefix(t *testing.T) {
	_, err := ResolveStashID(testSlots(), "zzzz")
	assert.Error(t, err)
}
