package tree

import (
	"bytes"
	"sort"
)

// DiffResult partitions the union of two snapshots' paths. Every list is sorted
// and no path appears in more than one list.
type DiffResult struct {
	// Added holds paths present only in the target snapshot.
	Added []string
	// Removed holds paths present only in the source snapshot.
	Removed []string
	// Modified holds paths present in both with differing content.
	Modified []string
	// Unchanged holds paths present in both with identical content.
	Unchanged []string
}

// UnchangedCount returns the number of identical paths.
func (d DiffResult) UnchangedCount() int {
	return len(d.Unchanged)
}

// Empty reports whether the two snapshots held the same content.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// Diff compares source against target.
func Diff(source, target Snapshot) DiffResult {
	var d DiffResult
	for p, se := range source.entries {
		te, ok := target.entries[p]
		switch {
		case !ok:
			d.Removed = append(d.Removed, p)
		case Differ(se, te):
			d.Modified = append(d.Modified, p)
		default:
			d.Unchanged = append(d.Unchanged, p)
		}
	}
	for p := range target.entries {
		if _, ok := source.entries[p]; !ok {
			d.Added = append(d.Added, p)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Modified)
	sort.Strings(d.Unchanged)
	return d
}

// Differ reports whether two entries for the same path hold different content.
// Content is compared byte for byte; line endings and encodings are never
// normalized. Entries whose content cannot be determined count as different.
func Differ(a, b Entry) bool {
	if a.Kind != b.Kind {
		return true
	}
	if a.Kind == KindDirectory {
		return false
	}
	if a.Size != b.Size {
		return true
	}
	if a.Content != nil && b.Content != nil {
		return !bytes.Equal(a.Content, b.Content)
	}
	ha, hb := hashOf(a), hashOf(b)
	if ha == "" || hb == "" {
		return true
	}
	return ha != hb
}

func hashOf(e Entry) string {
	if e.Hash != "" {
		return e.Hash
	}
	if e.Content != nil {
		return BlobHash(e.Content)
	}
	return ""
}
