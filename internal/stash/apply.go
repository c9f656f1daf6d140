package stash

import (
	"io"

	"github.com/trailmark/dvcs/internal/checkout"
	"github.com/trailmark/dvcs/internal/conflict"
	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/merge"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/util"
)

// Apply resolves stashID (default "stash@{0}"), three-way merges its
// commit against HEAD using the stash commit's first parent (HEAD at save
// time) as base, and checks out
// the result. hasConflicts is true if any path could not be auto-merged;
// apply never drops the slot, conflicted or not.
func Apply(r *repo.Repository, stashID string) (hasConflicts bool, err error) {
	refsHandle, err := r.OpenRefsRW()
	if err != nil {
		return false, err
	}
	defer refsHandle.Close()

	commitsHandle, err := r.OpenCommitsRW()
	if err != nil {
		return false, err
	}
	defer commitsHandle.Close()

	versions, err := r.VersionStore()
	if err != nil {
		return false, err
	}

	slots, err := listSlots(refsHandle, commitsHandle.Tree)
	if err != nil {
		return false, err
	}
	if len(slots) == 0 {
		return false, util.ErrNoStashesFound
	}
	idx, err := ResolveStashID(slots, stashID)
	if err != nil {
		return false, err
	}
	stashCommit := slots[idx].Commit

	if len(stashCommit.ParentIDs) == 0 {
		return false, util.ErrCorruptStashCommit
	}
	baseCommit, err := commitsHandle.Tree.GetCommit(stashCommit.ParentIDs[0])
	if err != nil {
		return false, err
	}

	headID, hasHead, err := refsHandle.Get(util.HeadFile)
	if err != nil {
		return false, err
	}
	var currentCommit merkle.Commit
	if hasHead {
		currentCommit, err = commitsHandle.Tree.GetCommit(headID)
		if err != nil {
			return false, err
		}
	}

	merged, conflicted, hasConflicts, err := mergeTrees(commitsHandle.Tree, versions, baseCommit, currentCommit, stashCommit)
	if err != nil {
		return false, err
	}

	if err := checkout.Index(r, conflicted, merged); err != nil {
		return false, err
	}
	if hasConflicts {
		return true, util.ErrMergeConflict
	}
	return false, nil
}

// mergeTrees three-way merges the full tree of base against current
// (local) and stash (remote), by path union, reading content bytes from
// versions for any file present in a given side.
func mergeTrees(tree *merkle.Tree, versions *objstore.Store, base, current, stash merkle.Commit) ([]checkout.MergedPath, []checkout.ConflictedPath, bool, error) {
	baseFiles := map[string]merkle.FileNode{}
	localFiles := map[string]merkle.FileNode{}
	remoteFiles := map[string]merkle.FileNode{}
	if err := collectFiles(tree, base, "", baseFiles); err != nil {
		return nil, nil, false, err
	}
	if current.ID != "" {
		if err := collectFiles(tree, current, "", localFiles); err != nil {
			return nil, nil, false, err
		}
	}
	if err := collectFiles(tree, stash, "", remoteFiles); err != nil {
		return nil, nil, false, err
	}

	paths := map[string]struct{}{}
	for p := range baseFiles {
		paths[p] = struct{}{}
	}
	for p := range localFiles {
		paths[p] = struct{}{}
	}
	for p := range remoteFiles {
		paths[p] = struct{}{}
	}

	var merged []checkout.MergedPath
	var conflicted []checkout.ConflictedPath
	hasConflicts := false

	for p := range paths {
		baseNode, hasBase := baseFiles[p]
		localNode, hasLocal := localFiles[p]
		remoteNode, hasRemote := remoteFiles[p]

		if !hasRemote {
			// Stash never touched this path; leave local as-is.
			continue
		}
		if hasRemote && hasLocal && remoteNode.Hash == localNode.Hash {
			continue
		}

		var baseBytes, localBytes, remoteBytes []byte
		var readErr error
		if hasBase {
			baseBytes, readErr = readVersion(versions, baseNode.Hash)
			if readErr != nil {
				return nil, nil, false, readErr
			}
		}
		if hasLocal {
			localBytes, readErr = readVersion(versions, localNode.Hash)
			if readErr != nil {
				return nil, nil, false, readErr
			}
		}
		remoteBytes, readErr = readVersion(versions, remoteNode.Hash)
		if readErr != nil {
			return nil, nil, false, readErr
		}

		result := merge.ThreeWay(baseBytes, localBytes, remoteBytes, "stash")
		if result.HasConflicts {
			hasConflicts = true
			conflicted = append(conflicted, checkout.ConflictedPath{
				Path:    p,
				Content: result.Content,
				RemoteEntry: conflict.MergeEntry{
					Path:        p,
					CommitEntry: nodePtrOf(remoteNode),
				},
			})
			continue
		}
		merged = append(merged, checkout.MergedPath{Path: p, Content: result.Content})
	}

	return merged, conflicted, hasConflicts, nil
}

func readVersion(versions *objstore.Store, h hashing.Hash) ([]byte, error) {
	r, err := versions.OpenVersionForRead(h)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func nodePtrOf(n merkle.FileNode) *merkle.Node {
	node := merkle.FileNodeOf(&n)
	return &node
}
