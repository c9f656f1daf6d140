// Copytree is the documented alternative stash implementation: instead of
// ref-backed commits, each stash is a plain directory under the hidden
// repository directory holding copies of the shelved files plus a
// head-commit marker. Conflict detection compares base/local/stash bytes
// directly rather than running a three-way text merge.
package stash

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trailmark/dvcs/internal/objstore"
	"github.com/trailmark/dvcs/internal/repo"
	"github.com/trailmark/dvcs/internal/util"
)

const (
	headCommitFile = "head_commit.txt"
	messageFile    = "message.txt"
)

// CopytreeEntry is one copytree stash slot.
type CopytreeEntry struct {
	Name    string // directory name, "stash_<millis>"
	Path    string // absolute path to the slot directory
	Message string // first line of message.txt, if present
}

// CopytreePush copies every path in modified (repo-relative) into a new
// timestamped slot directory alongside the current HEAD commit id, then
// reverts each file in the working tree to its HEAD content (or deletes it
// if HEAD has no such file).
func CopytreePush(r *repo.Repository, headCommitID string, message string, modified []string, versions *objstore.Store, headHash func(relPath string) (hasHash bool, hash [16]byte, err error)) error {
	root := util.CopytreeStashRoot(r.Root)
	slotDir := filepath.Join(root, slotName(nowMillis()))
	if err := os.MkdirAll(slotDir, 0o755); err != nil {
		return err
	}

	for _, rel := range modified {
		src := r.AbsPath(rel)
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		dst := filepath.Join(slotDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}

		has, hash, err := headHash(rel)
		if err != nil {
			return err
		}
		if has {
			if err := versions.CopyVersionTo(hash, src); err != nil {
				return err
			}
		} else {
			if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}

	if err := os.WriteFile(filepath.Join(slotDir, headCommitFile), []byte(headCommitID+"\n"), 0o644); err != nil {
		return err
	}
	if message != "" {
		if err := os.WriteFile(filepath.Join(slotDir, messageFile), []byte(message+"\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// CopytreeList enumerates slot directories, timestamp-sorted, showing each
// slot's message first line if present.
func CopytreeList(r *repo.Repository) ([]CopytreeEntry, error) {
	root := util.CopytreeStashRoot(r.Root)
	names, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []CopytreeEntry
	for _, n := range names {
		if !n.IsDir() {
			continue
		}
		slotPath := filepath.Join(root, n.Name())
		msg := ""
		if data, err := os.ReadFile(filepath.Join(slotPath, messageFile)); err == nil {
			msg = firstLine(string(data))
		}
		out = append(out, CopytreeEntry{Name: n.Name(), Path: slotPath, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CopytreeConflict is one path the apply/pop merge could not reconcile
// unambiguously; local content is kept on disk either way.
type CopytreeConflict struct {
	Path string
}

// CopytreeApply merges the last (most recent) slot's shelved files back
// into the working tree per spec.md's base/local/stash comparison table,
// and reports which paths conflicted. deleteSlot controls whether the
// slot is removed afterward (true for pop, false for apply); pop only
// deletes when no conflicts were recorded.
func CopytreeApply(r *repo.Repository, readHeadBytes func(relPath string) ([]byte, bool, error), deleteSlot bool) ([]CopytreeConflict, error) {
	slots, err := CopytreeList(r)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, util.ErrNoStashesFound
	}
	slot := slots[len(slots)-1]

	var conflicts []CopytreeConflict
	err = filepath.Walk(slot.Path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(slot.Path, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == headCommitFile || rel == messageFile {
			return nil
		}

		stashed, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		localPath := r.AbsPath(rel)
		local, localErr := os.ReadFile(localPath)
		hasLocal := localErr == nil

		base, hasBase, err := readHeadBytes(rel)
		if err != nil {
			return err
		}

		write := func(data []byte) error {
			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				return err
			}
			return os.WriteFile(localPath, data, 0o644)
		}

		if hasBase {
			lm := hasLocal && !bytes.Equal(local, base)
			sm := !bytes.Equal(stashed, base)
			switch {
			case lm && sm && hasLocal && !bytes.Equal(local, stashed):
				conflicts = append(conflicts, CopytreeConflict{Path: rel})
			case lm && sm:
				return write(stashed)
			case sm && !lm:
				return write(stashed)
			case !sm && lm:
				// keep local, no-op
			default:
				// no-op
			}
			return nil
		}

		if hasLocal {
			conflicts = append(conflicts, CopytreeConflict{Path: rel})
			return nil
		}
		return write(stashed)
	})
	if err != nil {
		return nil, err
	}

	if deleteSlot && len(conflicts) == 0 {
		if err := os.RemoveAll(slot.Path); err != nil {
			return conflicts, err
		}
	}
	return conflicts, nil
}

func slotName(millis int64) string {
	return "stash_" + strconv.FormatInt(millis, 10)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
