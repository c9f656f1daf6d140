package stash

import (
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/repo"
)

// listSlots returns every occupied stash slot, in order, by reading refs
// at 0, 1, 2, ... until the first absent ref.
func listSlots(refsHandle *repo.RefsHandle, tree *merkle.Tree) ([]Entry, error) {
	var out []Entry
	for k := 0; ; k++ {
		commitID, ok, err := refsHandle.Get(refName(k))
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		commit, err := tree.GetCommit(commitID)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Name: displayName(k), RefName: refName(k), CommitID: commitID, Commit: commit})
	}
	return out, nil
}

// shiftUpAndInsert shifts every slot k -> k+1 (from the top down, so no
// slot is overwritten before it's read) and writes newCommitID at slot 0.
func shiftUpAndInsert(refsHandle *repo.RefsHandle, newCommitID string) error {
	n := 0
	for {
		if _, ok, err := refsHandle.Get(refName(n)); err != nil {
			return err
		} else if !ok {
			break
		}
		n++
	}
	for i := n - 1; i >= 0; i-- {
		id, ok, err := refsHandle.Get(refName(i))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := refsHandle.Set(refName(i+1), id); err != nil {
			return err
		}
	}
	return refsHandle.Set(refName(0), newCommitID)
}

// compactDown deletes slot k and shifts every slot above it down by one,
// preserving the density invariant (no gaps between 0 and N-1).
func compactDown(refsHandle *repo.RefsHandle, k int) error {
	n := k
	for {
		if _, ok, err := refsHandle.Get(refName(n)); err != nil {
			return err
		} else if !ok {
			break
		}
		n++
	}
	for i := k + 1; i < n; i++ {
		id, _, err := refsHandle.Get(refName(i))
		if err != nil {
			return err
		}
		if err := refsHandle.Set(refName(i-1), id); err != nil {
			return err
		}
	}
	return refsHandle.Delete(refName(n - 1))
}

// clearAll deletes every stash slot.
func clearAll(refsHandle *repo.RefsHandle) error {
	for k := 0; ; k++ {
		if _, ok, err := refsHandle.Get(refName(k)); err != nil {
			return err
		} else if !ok {
			return nil
		}
		if err := refsHandle.Delete(refName(k)); err != nil {
			return err
		}
	}
}
