package util

import (
	"os"
	"path/filepath"
	"strings"
)

// Hidden-directory layout, following the teacher's util.PgitDir convention.
const (
	DvcsDir      = ".dvcs"
	ConfigFile   = "config.toml"
	StagedDBDir  = "staged"
	MergeDBDir   = "merge"
	MergeHeadTxt = "MERGE_HEAD"
	StashesDir   = "refs/stashes"
	CopyStashDir = "stash"
	VersionsDir  = "versions"
	RefsDir      = "refs"
	HeadFile     = "HEAD"
)

// FindRepoRoot walks up from the current directory to find the hidden dir.
func FindRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRepoRootFrom(dir)
}

// FindRepoRootFrom walks up from the given directory to find the hidden dir.
func FindRepoRootFrom(start string) (string, error) {
	dir := start
	for {
		dvcsPath := filepath.Join(dir, DvcsDir)
		if info, err := os.Stat(dvcsPath); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotARepository
		}
		dir = parent
	}
}

// DvcsPath returns the path to the hidden repository directory.
func DvcsPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir)
}

// ConfigPath returns the path to the config file.
func ConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, ConfigFile)
}

// StagedDBPath returns the path to the staged-entry KV database.
func StagedDBPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, StagedDBDir)
}

// MergeDBPath returns the path to the conflict KV database.
func MergeDBPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, MergeDBDir)
}

// MergeHeadPath returns the path to the MERGE_HEAD file.
func MergeHeadPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, MergeHeadTxt)
}

// VersionsPath returns the path to the content-addressed blob store root.
func VersionsPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, VersionsDir)
}

// RefsPath returns the path to the refs KV database (HEAD, stash refs).
func RefsPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, RefsDir)
}

// CommitsPath returns the path to the commit/tree-node KV database.
func CommitsPath(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, "commits")
}

// CopytreeStashRoot returns the root directory for the copytree stash slots.
func CopytreeStashRoot(repoRoot string) string {
	return filepath.Join(repoRoot, DvcsDir, CopyStashDir)
}

// RelativePath converts an absolute path to a path relative to the repo root.
func RelativePath(repoRoot, absPath string) (string, error) {
	rel, err := filepath.Rel(repoRoot, absPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// AbsolutePath converts a relative path to an absolute path.
func AbsolutePath(repoRoot, relPath string) string {
	relPath = filepath.FromSlash(relPath)
	return filepath.Join(repoRoot, relPath)
}

// IsInsideRepo checks if a path is inside the repository (not in the hidden dir).
func IsInsideRepo(repoRoot, path string) bool {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil {
		return false
	}
	if strings.HasPrefix(rel, "..") || rel == DvcsDir || strings.HasPrefix(rel, DvcsDir+string(filepath.Separator)) {
		return false
	}
	return true
}

// FileMode returns the Unix file mode as an integer.
func FileMode(path string) (int, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return int(info.Mode().Perm()) | int(info.Mode()&os.ModeType), nil
}

// IsSymlink checks if a path is a symbolic link.
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ReadSymlink returns the target of a symbolic link.
func ReadSymlink(path string) (string, error) {
	return os.Readlink(path)
}
