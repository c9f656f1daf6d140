package merkle

import (
	"sort"
	"strings"

	"github.com/trailmark/dvcs/internal/hashing"
)

// Builder assembles a full tree from a flat set of file entries keyed by
// their repo-relative path, then writes every dir/file node bottom-up
// through a Tree. Used by the stash engine to materialize a commit over an
// "index view" without going through the staged DB.
type Builder struct {
	files map[string]FileNode
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{files: map[string]FileNode{}}
}

// AddFile registers a file at its repo-relative slash-separated path.
func (b *Builder) AddFile(path string, node FileNode) {
	node.Name = baseName(path)
	b.files[path] = node
}

// Build writes every node bottom-up through tree and returns the root
// directory's hash, or the zero hash with HasRootDir=false if no files
// were registered.
func (b *Builder) Build(tree *Tree) (root hashing.Hash, hasRoot bool, err error) {
	if len(b.files) == 0 {
		return hashing.Hash{}, false, nil
	}

	type dirBuild struct {
		children map[string]DirEntry
	}
	dirs := map[string]*dirBuild{"": {children: map[string]DirEntry{}}}

	ensureDir := func(path string) *dirBuild {
		if d, ok := dirs[path]; ok {
			return d
		}
		d := &dirBuild{children: map[string]DirEntry{}}
		dirs[path] = d
		return d
	}

	// Ensure every ancestor directory exists, then place each file under
	// its immediate parent.
	for path, node := range b.files {
		parent := parentOf(path)
		for p := parent; ; p = parentOf(p) {
			ensureDir(p)
			if p == "" {
				break
			}
		}

		h, err := tree.PutNode(FileNodeOf(copyFileNode(node)))
		if err != nil {
			return hashing.Hash{}, false, err
		}
		dirs[parent].children[node.Name] = DirEntry{Name: node.Name, Kind: KindFile, Hash: h}
	}

	// Make sure every directory's parent has a record; the subdirectory
	// entries themselves are linked in the loop below.
	for path := range dirs {
		if path == "" {
			continue
		}
		parent := parentOf(path)
		ensureDir(parent)
	}

	// Write directories deepest-first so a parent can reference its
	// child's already-computed hash.
	var paths []string
	for p := range dirs {
		paths = append(paths, p)
	}
	depth := func(p string) int {
		if p == "" {
			return 0
		}
		return strings.Count(p, "/") + 1
	}
	sort.Slice(paths, func(i, j int) bool {
		return depth(paths[i]) > depth(paths[j])
	})

	dirHashes := map[string]hashing.Hash{}
	for _, p := range paths {
		d := dirs[p]

		// Link already-built subdirectories of p as entries; deepest-first
		// ordering guarantees a child's hash exists before its parent is
		// processed.
		for childPath := range dirs {
			if childPath == "" || childPath == p || parentOf(childPath) != p {
				continue
			}
			if h, ok := dirHashes[childPath]; ok {
				d.children[baseName(childPath)] = DirEntry{Name: baseName(childPath), Kind: KindDir, Hash: h}
			}
		}

		entries := make([]DirEntry, 0, len(d.children))
		for _, e := range d.children {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		h, err := tree.PutNode(DirNodeOf(&DirNode{Entries: entries}))
		if err != nil {
			return hashing.Hash{}, false, err
		}
		dirHashes[p] = h
	}

	return dirHashes[""], true, nil
}

func copyFileNode(n FileNode) *FileNode {
	c := n
	return &c
}

func parentOf(path string) string {
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
