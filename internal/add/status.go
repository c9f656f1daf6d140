package add

import (
	"os"

	"github.com/trailmark/dvcs/internal/hashing"
	"github.com/trailmark/dvcs/internal/merkle"
	"github.com/trailmark/dvcs/internal/staged"
)

// Options tunes the add engine's behavior. TrustMtime is the escape hatch
// the source's always-rehash design flags as a tunable: when true, a
// matching mtime short-circuits the rehash instead of verifying it.
// Progress, if non-nil, receives one AddProgress update per file processed
// by AddDir; callers that don't want progress reporting leave it nil.
type Options struct {
	TrustMtime bool
	Progress   chan<- AddProgress
}

// AddProgress is one stat update emitted while AddDir walks a directory,
// consumed by a UI progress bar.
type AddProgress struct {
	Path     string
	Status   staged.Status
	NumBytes int64
}

// FileStatusResult is what DetermineFileStatus reports about one file.
type FileStatusResult struct {
	DataPath       string
	Status         staged.Status
	Hash           hashing.Hash
	NumBytes       int64
	ModSeconds     int64
	ModNanoseconds int64

	PreviousMetadata []byte
	PreviousFileNode *merkle.FileNode
}

// DetermineFileStatus classifies dataPath against prev, the FileNode
// previously recorded for this path in the head commit (nil for a file
// the head commit has never seen). Per spec.md 4.G the mtime check is an
// optimization only: both the matching- and differing-mtime branches
// rehash, unless opts.TrustMtime opts out of the safety check.
func DetermineFileStatus(prev *merkle.FileNode, dataPath string, opts Options) (FileStatusResult, error) {
	info, err := os.Stat(dataPath)
	if err != nil {
		return FileStatusResult{}, err
	}
	mtime := info.ModTime()
	modSec := mtime.Unix()
	modNsec := int64(mtime.Nanosecond())

	if prev == nil {
		h, err := hashing.File(dataPath)
		if err != nil {
			return FileStatusResult{}, err
		}
		return FileStatusResult{
			DataPath:       dataPath,
			Status:         staged.Added,
			Hash:           h,
			NumBytes:       info.Size(),
			ModSeconds:     modSec,
			ModNanoseconds: modNsec,
		}, nil
	}

	mtimeMatches := prev.ModSeconds == modSec && prev.ModNanoseconds == modNsec
	if opts.TrustMtime && mtimeMatches {
		return FileStatusResult{
			DataPath:         dataPath,
			Status:           staged.Unmodified,
			Hash:             prev.Hash,
			NumBytes:         prev.NumBytes,
			ModSeconds:       modSec,
			ModNanoseconds:   modNsec,
			PreviousMetadata: prev.Metadata,
			PreviousFileNode: prev,
		}, nil
	}

	h, err := hashing.File(dataPath)
	if err != nil {
		return FileStatusResult{}, err
	}

	status := staged.Modified
	numBytes := info.Size()
	if hashing.Equal(h, prev.Hash) {
		status = staged.Unmodified
		numBytes = prev.NumBytes
	}

	return FileStatusResult{
		DataPath:         dataPath,
		Status:           status,
		Hash:             h,
		NumBytes:         numBytes,
		ModSeconds:       modSec,
		ModNanoseconds:   modNsec,
		PreviousMetadata: prev.Metadata,
		PreviousFileNode: prev,
	}, nil
}
