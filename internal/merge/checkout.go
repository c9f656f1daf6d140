package merge

import "github.com/trailmark/dvcs/internal/conflict"

// PathResult is ThreeWay's Result annotated with the repo-relative path it
// merged, letting callers record a conflict against the conflict reader
// without threading path plumbing through the line-merge algorithm.
type PathResult struct {
	Path string
	*Result
}

// RecordIfConflicted writes a conflict record for r.Path into reader when
// r.HasConflicts is true. Returns whether a record was written.
func RecordIfConflicted(reader *conflict.Reader, r PathResult, remoteEntry conflict.MergeEntry) (bool, error) {
	if !r.HasConflicts {
		return false, nil
	}
	remoteEntry.Path = r.Path
	return true, reader.PutConflict(conflict.Conflict{Path: r.Path, MergeEntry: remoteEntry})
}
