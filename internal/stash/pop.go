package stash

import "github.com/trailmark/dvcs/internal/repo"

// Pop applies stashID, then drops its slot iff the apply succeeded
// without conflicts.
func Pop(r *repo.Repository, stashID string) (hasConflicts bool, err error) {
	hasConflicts, err = Apply(r, stashID)
	if err != nil {
		return hasConflicts, err
	}
	return false, Drop(r, stashID)
}

// Drop resolves stashID to a slot, deletes it, and compacts the slots
// above it down by one to preserve the density invariant.
func Drop(r *repo.Repository, stashID string) error {
	refsHandle, err := r.OpenRefsRW()
	if err != nil {
		return err
	}
	defer refsHandle.Close()

	commitsHandle, err := r.OpenCommitsRO()
	if err != nil {
		return err
	}
	defer commitsHandle.Close()

	slots, err := listSlots(refsHandle, commitsHandle.Tree)
	if err != nil {
		return err
	}
	idx, err := ResolveStashID(slots, stashID)
	if err != nil {
		return err
	}
	return compactDown(refsHandle, idx)
}

// Clear deletes every stash slot.
func Clear(r *repo.Repository) error {
	refsHandle, err := r.OpenRefsRW()
	if err != nil {
		return err
	}
	defer refsHandle.Close()
	return clearAll(refsHandle)
}

// List returns every stash slot, in order.
func List(r *repo.Repository) ([]Entry, error) {
	refsHandle, err := r.OpenRefsRO()
	if err != nil {
		return nil, err
	}
	defer refsHandle.Close()

	commitsHandle, err := r.OpenCommitsRO()
	if err != nil {
		return nil, err
	}
	defer commitsHandle.Close()

	return listSlots(refsHandle, commitsHandle.Tree)
}
