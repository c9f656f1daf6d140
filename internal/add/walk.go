package add

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/trailmark/dvcs/internal/config"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/staged"
	"github.com/trailmark/dvcs/internal/util"
)

// CumulativeStats accumulates AddDir's per-run totals, broken down by the
// status each file was given plus a running byte count. Fields are updated
// with atomic operations since multiple walk workers report into the same
// Stats value concurrently.
type CumulativeStats struct {
	AddedFiles     int64
	ModifiedFiles  int64
	UnchangedFiles int64
	TotalBytes     int64
}

func (s *CumulativeStats) record(status staged.Status, numBytes int64) {
	switch status {
	case staged.Added:
		atomic.AddInt64(&s.AddedFiles, 1)
	case staged.Modified:
		atomic.AddInt64(&s.ModifiedFiles, 1)
	case staged.Unmodified:
		atomic.AddInt64(&s.UnchangedFiles, 1)
	}
	atomic.AddInt64(&s.TotalBytes, numBytes)
}

// headLookup resolves the FileNode previously recorded at a repo-relative
// path, if any. AddDir's caller supplies this bound to a specific commit
// (typically HEAD) so the walk never opens the commit DB itself.
type headLookup func(relPath string) (*merkle.FileNode, error)

// AddDir walks root (an absolute directory path inside the repository),
// staging every file it finds that the ignore patterns don't exclude. Per
// spec.md 4.G's worker-pool note, files are processed concurrently; the
// staged DB and conflict reader are shared across workers and must
// tolerate concurrent use (the KV store serializes writes internally).
func AddDir(
	ctx context.Context,
	r *repo.Repository,
	stagedDB *staged.DB,
	conflictReader ConflictReader,
	versions *objstore.Store,
	ignore *config.IgnorePatterns,
	head headLookup,
	root string,
	opts Options,
) (*CumulativeStats, error) {
	stats := &CumulativeStats{}
	seen := NewSeenDirs()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if gctx.Err() != nil {
			return gctx.Err()
		}

		relPath, err := r.RelPath(path)
		if err != nil {
			return err
		}
		if relPath == util.DvcsDir || hasPathPrefix(relPath, util.DvcsDir+"/") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.IsIgnored(relPath, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		g.Go(func() error {
			return addOneFile(stagedDB, conflictReader, versions, seen, head, stats, relPath, path, opts)
		})
		return nil
	})
	if err != nil {
		_ = g.Wait()
		return stats, err
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func addOneFile(
	stagedDB *staged.DB,
	conflictReader ConflictReader,
	versions *objstore.Store,
	seen *SeenDirs,
	head headLookup,
	stats *CumulativeStats,
	relPath, dataPath string,
	opts Options,
) error {
	var prev *merkle.FileNode
	if head != nil {
		var err error
		prev, err = head(relPath)
		if err != nil {
			return err
		}
	}

	status, err := DetermineFileStatus(prev, dataPath, opts)
	if err != nil {
		return err
	}

	if err := ProcessAddFile(stagedDB, conflictReader, versions, seen, relPath, status); err != nil {
		return err
	}

	stats.record(status.Status, status.NumBytes)
	if opts.Progress != nil {
		opts.Progress <- AddProgress{Path: relPath, Status: status.Status, NumBytes: status.NumBytes}
	}
	return nil
}

func hasPathPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}
