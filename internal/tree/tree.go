// Package tree holds the listing types shared by the local and remote readers and
// the differencer that compares two snapshots.
package tree

import (
	_ "crypto/sha1" // registers crypto.SHA1 for the go-git hasher
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v6/plumbing"
	format "github.com/go-git/go-git/v6/plumbing/format/config"
)

// Kind is the type of a listed entry.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// Entry is one listed path. Entries are values; readers build fresh ones on every
// call.
type Entry struct {
	// Path is relative to the listing root and always uses "/" separators.
	Path string
	Kind Kind
	// Size is the content length in bytes. Zero for directories.
	Size int64
	// Hash is the git blob object id of the content, empty when unknown.
	Hash string
	// Content is optional and only set by callers that already hold the bytes.
	Content []byte
}

// Name returns the last element of the entry path.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// CleanPath normalizes a relative path to the form used as a snapshot key:
// forward slashes, no leading "./" or "/", no trailing slash.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Snapshot maps relative paths to entries for one source at one point in time.
// The zero value is an empty snapshot.
type Snapshot struct {
	entries map[string]Entry
}

// NewSnapshot builds a snapshot from entries. Paths are cleaned; when two entries
// share a path the later one wins.
func NewSnapshot(entries ...Entry) Snapshot {
	s := Snapshot{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		e.Path = CleanPath(e.Path)
		if e.Path == "" {
			continue
		}
		s.entries[e.Path] = e
	}
	return s
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Get returns the entry at p.
func (s Snapshot) Get(p string) (Entry, bool) {
	e, ok := s.entries[CleanPath(p)]
	return e, ok
}

// Has reports whether p is present.
func (s Snapshot) Has(p string) bool {
	_, ok := s.Get(p)
	return ok
}

// Paths returns all paths in lexical order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns all entries ordered by path.
func (s Snapshot) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, p := range s.Paths() {
		out = append(out, s.entries[p])
	}
	return out
}

// Filter returns a new snapshot holding the entries for which keep returns true.
func (s Snapshot) Filter(keep func(Entry) bool) Snapshot {
	out := Snapshot{entries: make(map[string]Entry, len(s.entries))}
	for p, e := range s.entries {
		if keep(e) {
			out.entries[p] = e
		}
	}
	return out
}

// BlobHash returns the git blob object id for content. GitHub reports the same
// value as a file's sha, so local and remote hashes compare directly.
func BlobHash(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

// BlobHashReader hashes size bytes read from r as a git blob.
func BlobHashReader(r io.Reader, size int64) (string, error) {
	h := plumbing.NewHasher(format.SHA1, plumbing.BlobObject, size)
	n, err := io.Copy(h, r)
	if err != nil {
		return "", err
	}
	if n != size {
		return "", fmt.Errorf("read %d bytes, expected %d", n, size)
	}
	return h.Sum().String(), nil
}
