package stash

import (
	"strconv"
	"strings"

	"github.com/trailmark/dvcs/internal/util"
)

// ResolveStashID resolves a stash identifier against slots (as returned by
// listSlots, in index order) per the grammar: "stash@{K}" | "K" | a ref
// name ("refs/stashes/K") | a commit-id prefix (longest match across
// slots). An empty id defaults to "stash@{0}".
func ResolveStashID(slots []Entry, id string) (int, error) {
	if id == "" {
		id = "stash@{0}"
	}

	if k, ok := parseStashAt(id); ok {
		return indexOrNotFound(slots, k)
	}
	if k, err := strconv.Atoi(id); err == nil {
		return indexOrNotFound(slots, k)
	}
	for i, s := range slots {
		if s.RefName == id {
			return i, nil
		}
	}

	best := -1
	bestLen := 0
	for i, s := range slots {
		if strings.HasPrefix(s.CommitID, id) && len(id) > bestLen {
			best = i
			bestLen = len(id)
		}
	}
	if best >= 0 {
		return best, nil
	}

	return 0, util.ErrStashIDNotFound
}

func parseStashAt(id string) (int, bool) {
	if !strings.HasPrefix(id, "stash@{") || !strings.HasSuffix(id, "}") {
		return 0, false
	}
	inner := id[len("stash@{") : len(id)-1]
	k, err := strconv.Atoi(inner)
	if err != nil {
		return 0, false
	}
	return k, true
}

func indexOrNotFound(slots []Entry, k int) (int, error) {
	if k < 0 || k >= len(slots) {
		return 0, util.ErrStashIDNotFound
	}
	return k, nil
}
