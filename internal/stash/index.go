package stash

import (
	"io/fs"
	"path/filepath"

	"github.com/trailmark/dvcs/internal/add"
	"github.com/trailmark/dvcs/internal/config"
	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/staged"
	"github.com/trailmark/dvcs/internal/util"
)

// buildIndexView rebuilds the full working-tree state as a flat path ->
// FileNode map, the way save's "index view" does: every tracked file
// unchanged from head keeps its head FileNode; every modified or
// untracked file gets a freshly computed one (and its content copied into
// the version store); every path the staged DB marks Removed is dropped.
// This treats "modified files, staged additions, and untracked files" as a
// single category — everything that differs from head — matching the
// stash commit's job of capturing the whole working tree, not just
// explicitly staged changes.
//
// dirty reports whether the working tree differed from head at all (any
// added/modified file, or any staged removal); save uses this to decide
// whether there is anything to stash.
func buildIndexView(
	r *repo.Repository,
	tree *merkle.Tree,
	headCommit merkle.Commit,
	hasHead bool,
	stagedDB *staged.DB,
	versions *objstore.Store,
	ignore *config.IgnorePatterns,
) (files map[string]merkle.FileNode, dirty bool, err error) {
	files = map[string]merkle.FileNode{}
	if hasHead {
		if err := collectFiles(tree, headCommit, "", files); err != nil {
			return nil, false, err
		}
	}

	walkErr := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
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
		if relPath == util.DvcsDir || hasPrefix(relPath, util.DvcsDir+"/") {
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

		prev, hadPrev := files[relPath]
		var prevNode *merkle.FileNode
		if hadPrev {
			prevNode = &prev
		}

		status, err := add.DetermineFileStatus(prevNode, path, add.Options{})
		if err != nil {
			return err
		}
		if status.Status == staged.Unmodified {
			return nil
		}
		dirty = true

		if err := versions.StoreVersionFromPath(status.Hash, path); err != nil {
			return err
		}
		dataType, mimeType, err := add.SniffDataType(path)
		if err != nil {
			return err
		}

		var metadataBlob []byte
		var metadataHash *hashing.Hash
		if dataType == merkle.DataTypeTabular {
			meta, err := add.ComputeTabularMetadata(path)
			if err != nil {
				return err
			}
			if meta == nil {
				dataType = merkle.DataTypeBinary
			} else {
				if prevMeta, err := add.DecodeTabularMetadata(status.PreviousMetadata); err == nil && prevMeta != nil {
					add.MergeFieldAnnotations(prevMeta, meta)
				}
				metadataBlob, err = add.EncodeTabularMetadata(meta)
				if err != nil {
					return err
				}
				h := hashing.Metadata(metadataBlob)
				metadataHash = &h
			}
		}

		files[relPath] = merkle.FileNode{
			Name:           filepath.Base(relPath),
			Hash:           status.Hash,
			CombinedHash:   hashing.Combined(metadataHash, status.Hash),
			MetadataHash:   metadataHash,
			NumBytes:       status.NumBytes,
			ModSeconds:     status.ModSeconds,
			ModNanoseconds: status.ModNanoseconds,
			DataType:       dataType,
			MimeType:       mimeType,
			Extension:      filepath.Ext(relPath),
			Metadata:       metadataBlob,
		}
		return nil
	})
	if walkErr != nil {
		return nil, false, walkErr
	}

	removed, err := removedPaths(stagedDB)
	if err != nil {
		return nil, false, err
	}
	for _, p := range removed {
		if _, ok := files[p]; ok {
			delete(files, p)
			dirty = true
		}
	}

	return files, dirty, nil
}

func removedPaths(stagedDB *staged.DB) ([]string, error) {
	entries, err := stagedDB.Status()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, pe := range entries {
		if pe.Entry.Status == staged.Removed {
			out = append(out, pe.Path)
		}
	}
	return out, nil
}

func collectFiles(tree *merkle.Tree, commit merkle.Commit, prefix string, out map[string]merkle.FileNode) error {
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
				out[childPath] = *node.File
			}
		case merkle.KindDir:
			if err := collectFiles(tree, commit, childPath, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && path[:len(prefix)] == prefix
}
