// Package stash is the ref-backed stash engine: save/apply/pop/drop/list/
// clear over a densely numbered set of refs, each pointing at a commit
// built from an "index view" of the working tree. A copytree variant
// (directory-based, content-diff conflict detection) is also provided as
// the documented alternative.
package stash

import (
	"fmt"

	"github.com/trailmark/dvcs/internal/merkle"
)

// Entry is one stash slot as reported by List.
type Entry struct {
	Name     string // "stash@{k}"
	RefName  string
	CommitID string
	Commit   merkle.Commit
}

func refName(k int) string {
	return fmt.Sprintf("refs/stashes/%d", k)
}

func displayName(k int) string {
	return fmt.Sprintf("stash@{%d}", k)
}
