package add

import (
	"os"
	"strings"

	"github.com/trailmark/dvcs/internal/conflict"
	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/staged"
)

// ProcessAddFile builds the FileNode for a staged file and writes it (and
// its ancestor directory entries) to the staged DB. relPath is the file's
// repo-relative, slash-separated path.
//
// conflictReader is injected as an interface per spec.md §9's
// cyclic-dependency note: add consults and resolves conflicts, but the
// conflict reader is otherwise a standalone component.
func ProcessAddFile(
	stagedDB *staged.DB,
	conflictReader ConflictReader,
	versions *objstore.Store,
	seen *SeenDirs,
	relPath string,
	status FileStatusResult,
) error {
	info, err := os.Lstat(status.DataPath)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		// Defensive fallback matching the source: symlinks, sockets, and
		// devices get a placeholder directory entry instead of an error.
		return writeEntry(stagedDB, seen, relPath, staged.DefaultDirEntry())
	}

	effectiveStatus := status.Status
	if conflictReader != nil {
		hasConflict, err := conflictReader.HasFile(relPath)
		if err != nil {
			return err
		}
		if hasConflict {
			effectiveStatus = staged.Modified
			if err := conflictReader.MarkResolved(relPath); err != nil {
				return err
			}
		}
	}

	if effectiveStatus == staged.Unmodified {
		return nil
	}

	if err := versions.StoreVersionFromPath(status.Hash, status.DataPath); err != nil {
		return err
	}

	dataType, mimeType, err := SniffDataType(status.DataPath)
	if err != nil {
		return err
	}

	var metadataBlob []byte
	var metadataHash *hashing.Hash

	if dataType == merkle.DataTypeTabular {
		next, err := ComputeTabularMetadata(status.DataPath)
		if err != nil {
			return err
		}
		if next == nil {
			dataType = merkle.DataTypeBinary
		} else {
			if prev, err := DecodeTabularMetadata(status.PreviousMetadata); err == nil && prev != nil {
				MergeFieldAnnotations(prev, next)
			}
			metadataBlob, err = EncodeTabularMetadata(next)
			if err != nil {
				return err
			}
			h := hashing.Metadata(metadataBlob)
			metadataHash = &h
		}
	}

	combinedHash := hashing.Combined(metadataHash, status.Hash)

	node := &merkle.FileNode{
		Name:           baseName(relPath),
		Hash:           status.Hash,
		CombinedHash:   combinedHash,
		MetadataHash:   metadataHash,
		NumBytes:       status.NumBytes,
		ModSeconds:     status.ModSeconds,
		ModNanoseconds: status.ModNanoseconds,
		DataType:       dataType,
		MimeType:       mimeType,
		Extension:      extensionOf(relPath),
		Metadata:       metadataBlob,
	}

	entry := staged.Entry{Status: effectiveStatus, Node: nodePtr(merkle.FileNodeOf(node))}
	return writeEntry(stagedDB, seen, relPath, entry)
}

// ConflictReader is the subset of *conflict.Reader the add engine
// consults, injected as an interface to break the add/conflict cycle.
type ConflictReader interface {
	HasFile(path string) (bool, error)
	MarkResolved(path string) error
}

var _ ConflictReader = (*conflict.Reader)(nil)

func nodePtr(n merkle.Node) *merkle.Node {
	return &n
}

func writeEntry(stagedDB *staged.DB, seen *SeenDirs, relPath string, entry staged.Entry) error {
	if err := stagedDB.Put(relPath, entry); err != nil {
		return err
	}
	return writeAncestorDirs(stagedDB, seen, relPath)
}

// writeAncestorDirs writes a default Added staged entry for every ancestor
// directory of relPath (a/b/c -> a/b, a, ""), deduped across the whole add
// operation via seen. Per invariant 3, these entries must exist at least
// once; seen guarantees at most once.
func writeAncestorDirs(stagedDB *staged.DB, seen *SeenDirs, relPath string) error {
	dir := parentDir(relPath)
	for {
		if !seen.Insert(dir) {
			return nil
		}
		if err := stagedDB.Put(dir, staged.DefaultDirEntry()); err != nil {
			return err
		}
		if dir == "" {
			return nil
		}
		dir = parentDir(dir)
	}
}

func parentDir(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

func baseName(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

func extensionOf(path string) string {
	name := baseName(path)
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}
