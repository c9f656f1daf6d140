// Package repo is the LocalRepository handle: a root path, its config, and
// lazy openers for every KV-backed store the core depends on. Operations
// open exactly the stores they need and close them on every exit path, per
// the locking discipline the rest of the core follows.
package repo

import (
	"os"
	"path/filepath"

	"github.com/trailmark/dvcs/internal/config"
	"github.com/trailmark/dvcs/internal/conflict"
	"github.com/trailmark/dvcs/internal/kv"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/staged"
	"github.com/trailmark/dvcs/internal/util"
)

// Repository is a handle to one local repository: its root directory and
// configuration. Every other store (staged DB, conflict DB, commit/node
// DB, refs DB, version store) is opened on demand through its methods.
type Repository struct {
	Root   string
	Config *config.Config
}

// Open opens the repository containing the current working directory.
func Open() (*Repository, error) {
	return OpenAt("")
}

// OpenAt opens the repository containing path, or the current directory
// if path is empty.
func OpenAt(path string) (*Repository, error) {
	var root string
	var err error

	if path == "" {
		root, err = util.FindRepoRoot()
	} else {
		root, err = util.FindRepoRootFrom(path)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	return &Repository{Root: root, Config: cfg}, nil
}

// Init creates a new repository at path (the current directory if empty).
func Init(path string) (*Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		path, err = filepath.Abs(path)
		if err != nil {
			return nil, err
		}
	}

	dvcsPath := util.DvcsPath(path)
	if _, err := os.Stat(dvcsPath); err == nil {
		return nil, util.ErrAlreadyInitialized
	}

	if err := os.MkdirAll(dvcsPath, 0o755); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		os.RemoveAll(dvcsPath)
		return nil, err
	}

	return &Repository{Root: path, Config: cfg}, nil
}

// AbsPath returns the absolute path for a repo-relative path.
func (r *Repository) AbsPath(relPath string) string {
	return util.AbsolutePath(r.Root, relPath)
}

// RelPath returns the repo-relative path for an absolute path.
func (r *Repository) RelPath(absPath string) (string, error) {
	return util.RelativePath(r.Root, absPath)
}

// SaveConfig persists the repository configuration.
func (r *Repository) SaveConfig() error {
	return r.Config.Save(r.Root)
}

// LoadIgnorePatterns loads the repository's .gitignore/.dvcsignore rules.
func (r *Repository) LoadIgnorePatterns() (*config.IgnorePatterns, error) {
	return config.LoadIgnorePatterns(r.Root)
}

// OpenStagedRW opens the staged DB for writing. Callers must Close the
// returned handle when done; StagedHandle.Close releases the store.
func (r *Repository) OpenStagedRW() (*StagedHandle, error) {
	s, err := kv.OpenRW(util.StagedDBPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &StagedHandle{store: s, DB: staged.Open(s)}, nil
}

// OpenStagedRO opens the staged DB read-only.
func (r *Repository) OpenStagedRO() (*StagedHandle, error) {
	s, err := kv.OpenRO(util.StagedDBPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &StagedHandle{store: s, DB: staged.Open(s)}, nil
}

// StagedHandle bundles a staged.DB with the KV handle backing it.
type StagedHandle struct {
	store *kv.Store
	DB    *staged.DB
}

// Close releases the underlying KV handle.
func (h *StagedHandle) Close() error { return h.store.Close() }

// OpenConflictRW opens the conflict DB for writing.
func (r *Repository) OpenConflictRW() (*ConflictHandle, error) {
	s, err := kv.OpenRW(util.MergeDBPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &ConflictHandle{store: s, Reader: conflict.Open(s, util.MergeHeadPath(r.Root))}, nil
}

// OpenConflictRO opens the conflict DB read-only. An empty database is
// created first if absent, per spec.md 4.F.
func (r *Repository) OpenConflictRO() (*ConflictHandle, error) {
	s, err := kv.OpenRO(util.MergeDBPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &ConflictHandle{store: s, Reader: conflict.Open(s, util.MergeHeadPath(r.Root))}, nil
}

// ConflictHandle bundles a conflict.Reader with the KV handle backing it.
type ConflictHandle struct {
	store *kv.Store
	Reader *conflict.Reader
}

// Close releases the underlying KV handle.
func (h *ConflictHandle) Close() error { return h.store.Close() }

// OpenCommitsRW opens the commit/node DB for writing.
func (r *Repository) OpenCommitsRW() (*TreeHandle, error) {
	s, err := kv.OpenRW(util.CommitsPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &TreeHandle{store: s, Tree: merkle.Open(s)}, nil
}

// OpenCommitsRO opens the commit/node DB read-only.
func (r *Repository) OpenCommitsRO() (*TreeHandle, error) {
	s, err := kv.OpenRO(util.CommitsPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &TreeHandle{store: s, Tree: merkle.Open(s)}, nil
}

// TreeHandle bundles a merkle.Tree with the KV handle backing it.
type TreeHandle struct {
	store *kv.Store
	Tree  *merkle.Tree
}

// Close releases the underlying KV handle.
func (h *TreeHandle) Close() error { return h.store.Close() }

// OpenRefsRW opens the refs DB (HEAD, stash slots) for writing.
func (r *Repository) OpenRefsRW() (*RefsHandle, error) {
	s, err := kv.OpenRW(util.RefsPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &RefsHandle{store: s}, nil
}

// OpenRefsRO opens the refs DB read-only.
func (r *Repository) OpenRefsRO() (*RefsHandle, error) {
	s, err := kv.OpenRO(util.RefsPath(r.Root))
	if err != nil {
		return nil, err
	}
	return &RefsHandle{store: s}, nil
}

// RefsHandle is a thin KV wrapper for ref get/set/delete, keyed by ref
// name ("HEAD", "refs/stashes/0", ...) with a commit ID as the value.
type RefsHandle struct {
	store *kv.Store
}

// Close releases the underlying KV handle.
func (h *RefsHandle) Close() error { return h.store.Close() }

// Get returns the commit ID a ref points at.
func (h *RefsHandle) Get(name string) (commitID string, ok bool, err error) {
	v, ok, err := h.store.Get([]byte(name))
	if err != nil || !ok {
		return "", ok, err
	}
	return string(v), true, nil
}

// Set points ref name at commitID.
func (h *RefsHandle) Set(name, commitID string) error {
	return h.store.Put([]byte(name), []byte(commitID))
}

// Delete removes a ref.
func (h *RefsHandle) Delete(name string) error {
	return h.store.Delete([]byte(name))
}

// VersionStore opens the content-addressed blob store.
func (r *Repository) VersionStore() (*objstore.Store, error) {
	return objstore.Open(util.VersionsPath(r.Root))
}
