package stash

import (
	"fmt"
	"time"

	"github.com/trailmark/dvcs/internal/checkout"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/util"
)

// Save builds a commit over the current working tree's index view and
// pushes it onto stash slot 0, then hard-resets the working tree to HEAD.
// Returns (nil, false, nil) if the working tree is clean — nothing to
// stash. HEAD must exist (this design's stand-in for "must be on a
// branch", since the core models no symbolic branch refs): an empty
// repository returns ErrMustBeOnBranchToStash.
func Save(r *repo.Repository, message string) (*merkle.Commit, bool, error) {
	stagedHandle, err := r.OpenStagedRW()
	if err != nil {
		return nil, false, err
	}
	defer stagedHandle.Close()

	commitsHandle, err := r.OpenCommitsRW()
	if err != nil {
		return nil, false, err
	}
	defer commitsHandle.Close()

	refsHandle, err := r.OpenRefsRW()
	if err != nil {
		return nil, false, err
	}
	defer refsHandle.Close()

	versions, err := r.VersionStore()
	if err != nil {
		return nil, false, err
	}

	ignore, err := r.LoadIgnorePatterns()
	if err != nil {
		return nil, false, err
	}

	headID, hasHead, err := refsHandle.Get(util.HeadFile)
	if err != nil {
		return nil, false, err
	}
	if !hasHead {
		return nil, false, util.ErrMustBeOnBranchToStash
	}
	headCommit, err := commitsHandle.Tree.GetCommit(headID)
	if err != nil {
		return nil, false, err
	}

	files, dirty, err := buildIndexView(r, commitsHandle.Tree, headCommit, true, stagedHandle.DB, versions, ignore)
	if err != nil {
		return nil, false, err
	}
	if !dirty {
		return nil, false, nil
	}

	builder := merkle.NewBuilder()
	for path, node := range files {
		builder.AddFile(path, node)
	}
	rootHash, hasRoot, err := builder.Build(commitsHandle.Tree)
	if err != nil {
		return nil, false, err
	}

	commitMsg := fmt.Sprintf("WIP on %s: %s %s", "HEAD", util.ShortID(headID), headCommit.MessageFirstLine())
	if message != "" {
		commitMsg += "\n\n" + util.ToValidUTF8(message)
	}

	stashCommit := merkle.Commit{
		ID:         util.NewULID(),
		ParentIDs:  []string{headCommit.ID},
		Message:    commitMsg,
		Author:     r.Config.AuthorName(),
		Timestamp:  stashTimestamp(),
		RootHash:   rootHash,
		HasRootDir: hasRoot,
	}
	if err := commitsHandle.Tree.PutCommit(stashCommit); err != nil {
		return nil, false, err
	}

	if err := shiftUpAndInsert(refsHandle, stashCommit.ID); err != nil {
		return nil, false, err
	}

	// ResetHard opens the commit DB read-only itself; release this
	// read-write handle first so that open is not blocked by its lock.
	if err := commitsHandle.Close(); err != nil {
		return nil, false, err
	}
	if err := checkout.ResetHard(r, headCommit.ID); err != nil {
		return nil, false, err
	}

	return &stashCommit, true, nil
}

func stashTimestamp() time.Time {
	return time.Now()
}
