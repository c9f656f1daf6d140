// Package checkout is the reset & checkout glue the add and stash engines
// depend on: restoring the working tree to a commit's tree wholesale, and
// writing a merge result's per-path outcomes (clean or conflicted) back to
// disk.
package checkout

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/trailmark/dvcs/internal/config"
	"github.com/trailmark/dvcs/internal/conflict"
	"github.com/trailmark/dvcs/internal/merge"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/util"
)

// ResetHard sets the working tree to match commitID's tree exactly,
// removing every non-ignored working-tree file the commit doesn't have
// (tracked or not) and
// restoring every file the commit does have from the version store.
func ResetHard(r *repo.Repository, commitID string) error {
	commitsHandle, err := r.OpenCommitsRO()
	if err != nil {
		return err
	}
	defer commitsHandle.Close()

	commit, err := commitsHandle.Tree.GetCommit(commitID)
	if err != nil {
		return err
	}

	wanted := map[string]merkle.FileNode{}
	if err := collectFiles(commitsHandle.Tree, commit, "", &wanted); err != nil {
		return err
	}

	ignore, err := r.LoadIgnorePatterns()
	if err != nil {
		return err
	}

	if err := removeUntracked(r, ignore, wanted); err != nil {
		return err
	}

	versions, err := r.VersionStore()
	if err != nil {
		return err
	}

	for relPath, fn := range wanted {
		if err := versions.CopyVersionTo(fn.Hash, r.AbsPath(relPath)); err != nil {
			return err
		}
	}

	return nil
}

func collectFiles(tree *merkle.Tree, commit merkle.Commit, prefix string, out *map[string]merkle.FileNode) error {
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
			node, err := tree.GetNode(entry.Hash)
			if err != nil {
				return err
			}
			if node != nil && node.File != nil {
				(*out)[childPath] = *node.File
			}
		case merkle.KindDir:
			if err := collectFiles(tree, commit, childPath, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeUntracked(r *repo.Repository, ignore *config.IgnorePatterns, wanted map[string]merkle.FileNode) error {
	return filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == r.Root {
			return nil
		}

		relPath, err := r.RelPath(path)
		if err != nil {
			return err
		}
		if relPath == util.DvcsDir || hasPathPrefix(relPath, util.DvcsDir+"/") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.IsIgnored(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if _, tracked := wanted[relPath]; !tracked {
			return os.Remove(path)
		}
		return nil
	})
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}

// MergedPath is one path the three-way merge resolved cleanly.
type MergedPath struct {
	Path    string
	Content []byte
}

// ConflictedPath is one path the three-way merge could not resolve. Content
// is whatever checkout should leave on disk — conflict markers or the
// "ours" side, implementation-defined per spec.
type ConflictedPath struct {
	Path        string
	Content     []byte
	RemoteEntry conflict.MergeEntry
}

// Index writes merged and conflicted paths to disk and records every
// conflicted path in the conflict DB.
func Index(r *repo.Repository, conflicted []ConflictedPath, merged []MergedPath) error {
	for _, m := range merged {
		if err := writeFile(r.AbsPath(m.Path), m.Content); err != nil {
			return err
		}
	}
	if len(conflicted) == 0 {
		return nil
	}

	handle, err := r.OpenConflictRW()
	if err != nil {
		return err
	}
	defer handle.Close()

	for _, c := range conflicted {
		if err := writeFile(r.AbsPath(c.Path), c.Content); err != nil {
			return err
		}
		result := merge.PathResult{Path: c.Path, Result: &merge.Result{Content: c.Content, HasConflicts: true}}
		if _, err := merge.RecordIfConflicted(handle.Reader, result, c.RemoteEntry); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}
