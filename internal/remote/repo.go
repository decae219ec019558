package remote

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"flashgh/internal/apperr"

	"github.com/google/go-github/v59/github"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses "owner/name". Exactly one slash is allowed and both halves
// must use GitHub's name charset.
func ParseRepo(s string) (Repo, error) {
	const op = "parse repository"

	s = strings.TrimSpace(s)
	owner, name, ok := strings.Cut(s, "/")
	if !ok || strings.Contains(name, "/") {
		return Repo{}, apperr.Errorf(apperr.InvalidInput, op, s, "repository must be in owner/name form")
	}
	if owner == "" || name == "" {
		return Repo{}, apperr.Errorf(apperr.InvalidInput, op, s, "owner and name cannot be empty")
	}
	if !nameRE.MatchString(owner) || !nameRE.MatchString(name) {
		return Repo{}, apperr.Errorf(apperr.InvalidInput, op, s, "repository contains invalid characters")
	}
	if name == "." || name == ".." {
		return Repo{}, apperr.Errorf(apperr.InvalidInput, op, s, "invalid repository name")
	}
	return Repo{Owner: owner, Name: name}, nil
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Branch selects the ref an operation works on. The zero value is the
// repository's default branch.
type Branch struct {
	name string
}

// DefaultBranch selects the repository's default branch.
func DefaultBranch() Branch {
	return Branch{}
}

// NamedBranch selects a branch by name.
func NamedBranch(name string) Branch {
	return Branch{name: name}
}

// BranchFromArg converts a user-supplied argument, where empty means the
// default branch.
func BranchFromArg(s string) Branch {
	return Branch{name: strings.TrimSpace(s)}
}

// IsDefault reports whether b selects the default branch.
func (b Branch) IsDefault() bool {
	return b.name == ""
}

// Name returns the branch name, empty for the default branch.
func (b Branch) Name() string {
	return b.name
}

func (b Branch) String() string {
	if b.IsDefault() {
		return "default branch"
	}
	return b.name
}

// ptr returns nil for the default branch so the API picks it.
func (b Branch) ptr() *string {
	if b.IsDefault() {
		return nil
	}
	return github.String(b.name)
}

// RepoInfo is the repository metadata shown by search and browse.
type RepoInfo struct {
	FullName      string
	Name          string
	Owner         string
	Description   string
	HTMLURL       string
	CloneURL      string
	SSHURL        string
	DefaultBranch string
	Language      string
	License       string
	Visibility    string
	Private       bool
	Fork          bool
	Archived      bool
	Stars         int
	Forks         int
	OpenIssues    int
	// SizeKB is the repository size GitHub reports, in kilobytes.
	SizeKB    int
	CreatedAt time.Time
	UpdatedAt time.Time
	PushedAt  time.Time
}

func repoInfo(r *github.Repository) RepoInfo {
	vis := r.GetVisibility()
	if vis == "" {
		vis = "public"
		if r.GetPrivate() {
			vis = "private"
		}
	}
	return RepoInfo{
		FullName:      r.GetFullName(),
		Name:          r.GetName(),
		Owner:         r.GetOwner().GetLogin(),
		Description:   r.GetDescription(),
		HTMLURL:       r.GetHTMLURL(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		License:       r.GetLicense().GetName(),
		Visibility:    vis,
		Private:       r.GetPrivate(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		SizeKB:        r.GetSize(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
	}
}

// Item is one entry returned by the contents API.
type Item struct {
	Path string
	Name string
	// Type is file, dir, symlink or submodule.
	Type        string
	Size        int64
	SHA         string
	Target      string
	DownloadURL string
	HTMLURL     string
}

// IsDir reports whether the item is a directory.
func (i Item) IsDir() bool {
	return i.Type == "dir"
}

// Contents is the result of a contents lookup: a directory listing or a single
// file.
type Contents struct {
	Dir   bool
	Items []Item
	File  Item
	// Content holds the decoded file content. It is nil for files the contents
	// API does not inline (over 1 MB); fetch those by SHA.
	Content []byte
}

func item(c *github.RepositoryContent) Item {
	return Item{
		Path:        c.GetPath(),
		Name:        c.GetName(),
		Type:        c.GetType(),
		Size:        int64(c.GetSize()),
		SHA:         c.GetSHA(),
		Target:      c.GetTarget(),
		DownloadURL: c.GetDownloadURL(),
		HTMLURL:     c.GetHTMLURL(),
	}
}

// FileWrite describes one contents API write. SHA is the current blob id and
// is required for updates and deletes.
type FileWrite struct {
	Path    string
	Content []byte
	Message string
	Branch  Branch
	SHA     string
}

func (w FileWrite) String() string {
	return fmt.Sprintf("%s@%s", w.Path, w.Branch)
}

// CreateOptions configures CreateRepository.
type CreateOptions struct {
	Private     bool
	Description string
	// Org creates the repository under the owner organisation instead of the
	// authenticated user.
	Org bool
}
