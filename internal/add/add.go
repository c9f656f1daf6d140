// Package add is the Add Engine: it classifies working-tree files against
// the head commit's tree, stores changed content in the version store, and
// writes staged entries recording what a future commit would capture.
package add

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/trailmark/dvcs/internal/config"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/staged"
	"github.com/trailmark/dvcs/internal/util"
)

// Add dispatches pathOrGlob per spec.md 4.G: a glob expands against both
// the working directory and the head commit's tree (so a glob can stage
// the removal of tracked files that no longer match on disk); a plain path
// that doesn't exist is treated as a removal request; otherwise a
// directory dispatches to AddDir and a file stages by itself.
func Add(ctx context.Context, r *repo.Repository, pathOrGlob string, opts Options) (*CumulativeStats, error) {
	stagedHandle, err := r.OpenStagedRW()
	if err != nil {
		return nil, err
	}
	defer stagedHandle.Close()

	conflictHandle, err := r.OpenConflictRW()
	if err != nil {
		return nil, err
	}
	defer conflictHandle.Close()

	versions, err := r.VersionStore()
	if err != nil {
		return nil, err
	}

	ignore, err := r.LoadIgnorePatterns()
	if err != nil {
		return nil, err
	}

	commitsHandle, err := r.OpenCommitsRO()
	if err != nil {
		return nil, err
	}
	defer commitsHandle.Close()

	headCommit, hasHead, err := resolveHead(r, commitsHandle.Tree)
	if err != nil {
		return nil, err
	}

	head := func(relPath string) (*merkle.FileNode, error) {
		if !hasHead {
			return nil, nil
		}
		node, err := commitsHandle.Tree.GetByPath(headCommit, relPath)
		if err != nil || node == nil || node.File == nil {
			return nil, err
		}
		return node.File, nil
	}

	eng := &engine{
		r:              r,
		stagedDB:       stagedHandle.DB,
		conflictReader: conflictHandle.Reader,
		versions:       versions,
		ignore:         ignore,
		head:           head,
	}

	if isGlob(pathOrGlob) {
		paths, err := expandGlob(r, commitsHandle.Tree, headCommit, hasHead, pathOrGlob)
		if err != nil {
			return nil, err
		}
		stats := &CumulativeStats{}
		for _, p := range paths {
			s, err := eng.addPath(ctx, p, opts)
			if err != nil {
				return stats, err
			}
			mergeStats(stats, s)
		}
		return stats, nil
	}

	absPath := r.AbsPath(pathOrGlob)
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return &CumulativeStats{}, removePath(stagedHandle.DB, pathOrGlob)
	}

	return eng.addPath(ctx, pathOrGlob, opts)
}

// engine bundles the open handles one Add invocation shares across its
// (possibly many, for a glob) add_file/add_dir calls.
type engine struct {
	r              *repo.Repository
	stagedDB       *staged.DB
	conflictReader ConflictReader
	versions       *objstore.Store
	ignore         *config.IgnorePatterns
	head           headLookup
}

func (e *engine) addPath(ctx context.Context, relPath string, opts Options) (*CumulativeStats, error) {
	absPath := e.r.AbsPath(relPath)
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return AddDir(ctx, e.r, e.stagedDB, e.conflictReader, e.versions, e.ignore, e.head, absPath, opts)
	}

	seen := NewSeenDirs()
	prev, err := e.head(relPath)
	if err != nil {
		return nil, err
	}
	status, err := DetermineFileStatus(prev, absPath, opts)
	if err != nil {
		return nil, err
	}
	if err := ProcessAddFile(e.stagedDB, e.conflictReader, e.versions, seen, relPath, status); err != nil {
		return nil, err
	}
	if opts.Progress != nil {
		opts.Progress <- AddProgress{Path: relPath, Status: status.Status, NumBytes: status.NumBytes}
	}
	stats := &CumulativeStats{}
	stats.record(status.Status, status.NumBytes)
	return stats, nil
}

func mergeStats(dst, src *CumulativeStats) {
	dst.AddedFiles += src.AddedFiles
	dst.ModifiedFiles += src.ModifiedFiles
	dst.UnchangedFiles += src.UnchangedFiles
	dst.TotalBytes += src.TotalBytes
}

// removePath stages a removal: a plain path (file or directory) that no
// longer exists on disk. Recursive on directories per spec.md 4.G: every
// staged entry whose path is or is under relPath is marked Removed.
func removePath(stagedDB *staged.DB, relPath string) error {
	entries, err := stagedDB.Status()
	if err != nil {
		return err
	}
	found := false
	for _, pe := range entries {
		if pe.Path == relPath || hasPathPrefix(pe.Path, relPath+"/") {
			found = true
			if err := stagedDB.Put(pe.Path, staged.Entry{Status: staged.Removed, Node: pe.Entry.Node}); err != nil {
				return err
			}
		}
	}
	if !found {
		return stagedDB.Put(relPath, staged.Entry{Status: staged.Removed})
	}
	return nil
}

func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

func resolveHead(r *repo.Repository, tree *merkle.Tree) (merkle.Commit, bool, error) {
	refsHandle, err := r.OpenRefsRO()
	if err != nil {
		return merkle.Commit{}, false, err
	}
	defer refsHandle.Close()

	commitID, ok, err := refsHandle.Get(util.HeadFile)
	if err != nil || !ok {
		return merkle.Commit{}, false, err
	}
	commit, err := tree.GetCommit(commitID)
	if err != nil {
		return merkle.Commit{}, false, err
	}
	return commit, true, nil
}

// expandGlob unions filesystem matches with head-commit tree matches for
// pattern, so a glob like "data/*.csv" can stage the removal of a tracked
// file that no longer exists on disk alongside the files that do.
func expandGlob(r *repo.Repository, tree *merkle.Tree, headCommit merkle.Commit, hasHead bool, pattern string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string

	fsMatches, err := filepath.Glob(r.AbsPath(pattern))
	if err != nil {
		return nil, err
	}
	for _, m := range fsMatches {
		rel, err := r.RelPath(m)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[rel]; !ok {
			seen[rel] = struct{}{}
			out = append(out, rel)
		}
	}

	if hasHead {
		var allPaths []string
		if err := collectAllPaths(tree, headCommit, "", &allPaths); err != nil {
			return nil, err
		}
		for _, p := range allPaths {
			matched, err := filepath.Match(pattern, p)
			if err != nil {
				return nil, err
			}
			if matched {
				if _, ok := seen[p]; !ok {
					seen[p] = struct{}{}
					out = append(out, p)
				}
			}
		}
	}

	return out, nil
}

func collectAllPaths(tree *merkle.Tree, commit merkle.Commit, prefix string, out *[]string) error {
	dir, err := tree.Dir(commit, prefix)
	if err != nil {
		return err
	}
	if dir == nil {
		return nil
	}
	for _, entry := range dir.Entries {
		childPath := entry.Name
		if prefix != "" {
			childPath = prefix + "/" + entry.Name
		}
		switch entry.Kind {
		case merkle.KindFile:
			*out = append(*out, childPath)
		case merkle.KindDir:
			if err := collectAllPaths(tree, commit, childPath, out); err != nil {
				return err
			}
		}
	}
	return nil
}
