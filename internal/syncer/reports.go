package syncer

import (
	"flashgh/internal/remote"
	"flashgh/internal/tree"
)

// CompareReport is the result of Compare. Diff.Added holds remote-only paths,
// Diff.Removed local-only paths.
type CompareReport struct {
	Repo        remote.Repo
	Branch      remote.Branch
	LocalDir    string
	Diff        tree.DiffResult
	LocalFiles  int
	RemoteFiles int
}

// InSync reports whether both sides hold the same files.
func (r CompareReport) InSync() bool {
	return r.Diff.Empty()
}

// RemoteOnly returns paths present only in the repository.
func (r CompareReport) RemoteOnly() []string { return r.Diff.Added }

// LocalOnly returns paths present only in the local directory.
func (r CompareReport) LocalOnly() []string { return r.Diff.Removed }

// PullReport is the result of Pull.
type PullReport struct {
	Repo     remote.Repo
	Branch   remote.Branch
	LocalDir string
	// Written lists every file written, in path order.
	Written []string
	// Bytes is the total size written.
	Bytes int64
}

// PushReport is the result of Push.
type PushReport struct {
	Repo   remote.Repo
	Branch remote.Branch
	// RepoCreated is set when the repository did not exist before the push.
	RepoCreated bool
	RepoURL     string
	// SeededReadme is set when README.md was added to a new repository.
	SeededReadme bool
	Created      []string
	Updated      []string
	Deleted      []string
	Unchanged    int
}

// Writes returns the number of remote commits the push made.
func (r PushReport) Writes() int {
	n := len(r.Created) + len(r.Updated) + len(r.Deleted)
	if r.SeededReadme {
		n++
	}
	return n
}

// BrowseResult is the result of Browse.
type BrowseResult struct {
	Repo remote.RepoInfo
	// Ref is the branch the contents were read from.
	Ref            string
	Path           string
	Contents       remote.Contents
	IncludeContent bool
}
