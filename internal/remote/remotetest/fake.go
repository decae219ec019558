// Package remotetest provides an in-memory GitHub for engine and tool tests.
package remotetest

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"flashgh/internal/apperr"
	"flashgh/internal/remote"
	"flashgh/internal/tree"
)

// Fake is an in-memory remote. Branches hold flat path -> content maps.
// It is safe for concurrent use.
type Fake struct {
	mu    sync.Mutex
	login string
	repos map[string]*fakeRepo

	// FailWrite, when set, is called before each write; a non-nil error aborts it.
	FailWrite func(op, path string) error
	// FailBlob, when set, is called before each blob read.
	FailBlob func(sha string) error

	writes  []string
	created []remote.CreateOptions
}

type fakeRepo struct {
	info     remote.RepoInfo
	branches map[string]map[string][]byte
}

// New returns an empty fake. login is the authenticated user; empty means
// anonymous.
func New(login string) *Fake {
	return &Fake{login: login, repos: make(map[string]*fakeRepo)}
}

// AddRepo registers a repository whose default branch "main" holds files. A nil
// map creates an empty repository with no commits.
func (f *Fake) AddRepo(fullName string, files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	owner, name, _ := strings.Cut(fullName, "/")
	r := &fakeRepo{
		info: remote.RepoInfo{
			FullName:      fullName,
			Name:          name,
			Owner:         owner,
			DefaultBranch: "main",
			Visibility:    "public",
			HTMLURL:       "https://github.com/" + fullName,
			CloneURL:      "https://github.com/" + fullName + ".git",
			UpdatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		branches: make(map[string]map[string][]byte),
	}
	f.repos[fullName] = r
	if files != nil {
		r.branches["main"] = toBytes(files)
	}
}

// SetBranch replaces the content of branch.
func (f *Fake) SetBranch(fullName, branch string, files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos[fullName].branches[branch] = toBytes(files)
}

// SetInfo edits a repository's metadata.
func (f *Fake) SetInfo(fullName string, edit func(*remote.RepoInfo)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	edit(&f.repos[fullName].info)
}

// Files returns the content of branch, or nil when it does not exist.
func (f *Fake) Files(fullName, branch string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.repos[fullName]
	if !ok {
		return nil
	}
	if branch == "" {
		branch = r.info.DefaultBranch
	}
	files, ok := r.branches[branch]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(files))
	for p, b := range files {
		out[p] = string(b)
	}
	return out
}

// Writes returns the log of successful writes, e.g. "create a.txt".
func (f *Fake) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// Created returns the options of every CreateRepository call.
func (f *Fake) Created() []remote.CreateOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remote.CreateOptions(nil), f.created...)
}

func toBytes(files map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(files))
	for p, c := range files {
		out[tree.CleanPath(p)] = []byte(c)
	}
	return out
}

func (f *Fake) repo(op string, repo remote.Repo) (*fakeRepo, error) {
	r, ok := f.repos[repo.String()]
	if !ok {
		return nil, apperr.Errorf(apperr.NotFound, op, repo.String(), "repository not found")
	}
	return r, nil
}

// branch returns the files on b. ok is false when the branch does not exist.
func (r *fakeRepo) branch(b remote.Branch) (files map[string][]byte, ok bool) {
	name := b.Name()
	if b.IsDefault() {
		name = r.info.DefaultBranch
	}
	files, ok = r.branches[name]
	return files, ok
}

func (r *fakeRepo) branchName(b remote.Branch) string {
	if b.IsDefault() {
		return r.info.DefaultBranch
	}
	return b.Name()
}

func (r *fakeRepo) empty() bool {
	return len(r.branches) == 0
}

func (f *Fake) Search(ctx context.Context, query string, limit int) ([]remote.RepoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		return nil, apperr.Errorf(apperr.InvalidInput, "search repositories", "", "query cannot be empty")
	}
	var out []remote.RepoInfo
	for name, r := range f.repos {
		if strings.Contains(strings.ToLower(name), strings.ToLower(query)) {
			out = append(out, r.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) Repository(ctx context.Context, repo remote.Repo) (remote.RepoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo("get repository", repo)
	if err != nil {
		return remote.RepoInfo{}, err
	}
	return r.info, nil
}

func (f *Fake) Contents(ctx context.Context, repo remote.Repo, p string, b remote.Branch) (remote.Contents, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const op = "get contents"
	r, err := f.repo(op, repo)
	if err != nil {
		return remote.Contents{}, err
	}
	files, ok := r.branch(b)
	if !ok {
		return remote.Contents{}, apperr.Errorf(apperr.NotFound, op, repo.String(), "no commit found for %s", b)
	}

	p = tree.CleanPath(p)
	if data, ok := files[p]; ok {
		return remote.Contents{File: fileItem(p, data), Content: append([]byte{}, data...)}, nil
	}

	seen := make(map[string]bool)
	var items []remote.Item
	prefix := ""
	if p != "" {
		prefix = p + "/"
	}
	for fp, data := range files {
		if !strings.HasPrefix(fp, prefix) {
			continue
		}
		rest := strings.TrimPrefix(fp, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			dir := prefix + rest[:i]
			if !seen[dir] {
				seen[dir] = true
				items = append(items, remote.Item{Path: dir, Name: path.Base(dir), Type: "dir"})
			}
			continue
		}
		items = append(items, fileItem(fp, data))
	}
	if p != "" && len(items) == 0 {
		return remote.Contents{}, apperr.Errorf(apperr.NotFound, op, repo.String()+"/"+p, "not found")
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return remote.Contents{Dir: true, Items: items}, nil
}

func fileItem(p string, data []byte) remote.Item {
	return remote.Item{
		Path:        p,
		Name:        path.Base(p),
		Type:        "file",
		Size:        int64(len(data)),
		SHA:         tree.BlobHash(data),
		DownloadURL: "https://raw.example.com/" + p,
	}
}

func (f *Fake) List(ctx context.Context, repo remote.Repo, p string, b remote.Branch, recursive bool) ([]tree.Entry, error) {
	if !recursive {
		c, err := f.Contents(ctx, repo, p, b)
		if err != nil {
			return nil, err
		}
		if !c.Dir {
			return []tree.Entry{{Path: c.File.Path, Kind: tree.KindFile, Size: c.File.Size, Hash: c.File.SHA}}, nil
		}
		var out []tree.Entry
		for _, it := range c.Items {
			kind := tree.KindFile
			if it.IsDir() {
				kind = tree.KindDirectory
			}
			out = append(out, tree.Entry{Path: it.Path, Kind: kind, Size: it.Size, Hash: it.SHA})
		}
		return out, nil
	}

	snap, err := f.Snapshot(ctx, repo, b)
	if err != nil {
		return nil, err
	}
	p = tree.CleanPath(p)
	var out []tree.Entry
	for _, e := range snap.Entries() {
		if p == "" || strings.HasPrefix(e.Path, p+"/") {
			out = append(out, e)
		}
	}
	if p != "" && len(out) == 0 {
		return nil, apperr.Errorf(apperr.NotFound, "list repository", repo.String()+"/"+p, "not found")
	}
	return out, nil
}

func (f *Fake) Read(ctx context.Context, repo remote.Repo, p string, b remote.Branch) ([]byte, error) {
	c, err := f.Contents(ctx, repo, p, b)
	if err != nil {
		return nil, err
	}
	if c.Dir {
		return nil, apperr.Errorf(apperr.InvalidInput, "read file", p, "path is a directory")
	}
	return c.Content, nil
}

func (f *Fake) ReadBlob(ctx context.Context, repo remote.Repo, sha string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.FailBlob != nil {
		if err := f.FailBlob(sha); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo("read blob", repo)
	if err != nil {
		return nil, err
	}
	for _, files := range r.branches {
		for _, data := range files {
			if tree.BlobHash(data) == sha {
				return append([]byte{}, data...), nil
			}
		}
	}
	return nil, apperr.Errorf(apperr.NotFound, "read blob", repo.String()+"@"+sha, "blob not found")
}

func (f *Fake) Snapshot(ctx context.Context, repo remote.Repo, b remote.Branch) (tree.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := f.repo("read tree", repo)
	if err != nil {
		return tree.Snapshot{}, err
	}
	if r.empty() {
		return tree.NewSnapshot(), nil
	}
	files, ok := r.branch(b)
	if !ok {
		return tree.Snapshot{}, apperr.Errorf(apperr.NotFound, "read tree", repo.String()+"@"+b.String(), "branch not found")
	}
	entries := make([]tree.Entry, 0, len(files))
	for p, data := range files {
		entries = append(entries, tree.Entry{Path: p, Kind: tree.KindFile, Size: int64(len(data)), Hash: tree.BlobHash(data)})
	}
	return tree.NewSnapshot(entries...), nil
}

// target returns the files a write lands in. Writing to an empty repository
// creates its default branch, as GitHub does on first commit.
func (f *Fake) target(op string, repo remote.Repo, w remote.FileWrite) (map[string][]byte, error) {
	if f.login == "" {
		return nil, apperr.Errorf(apperr.AuthError, op, repo.String(), "authentication required")
	}
	if f.FailWrite != nil {
		if err := f.FailWrite(op, w.Path); err != nil {
			return nil, apperr.New(apperr.RemoteWriteError, op, repo.String()+"/"+w.Path, err)
		}
	}
	r, err := f.repo(op, repo)
	if err != nil {
		return nil, apperr.New(apperr.RemoteWriteError, op, repo.String(), err)
	}
	if r.empty() {
		r.branches[r.branchName(w.Branch)] = make(map[string][]byte)
	}
	files, ok := r.branch(w.Branch)
	if !ok {
		return nil, apperr.Errorf(apperr.RemoteWriteError, op, repo.String(), "branch %s not found", w.Branch)
	}
	return files, nil
}

func (f *Fake) CreateFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const op = "create remote file"
	files, err := f.target(op, repo, w)
	if err != nil {
		return "", err
	}
	p := tree.CleanPath(w.Path)
	if _, exists := files[p]; exists {
		return "", apperr.Errorf(apperr.RemoteWriteError, op, p, "sha wasn't supplied")
	}
	files[p] = append([]byte{}, w.Content...)
	f.writes = append(f.writes, "create "+p)
	return tree.BlobHash(w.Content), nil
}

func (f *Fake) UpdateFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const op = "update remote file"
	files, err := f.target(op, repo, w)
	if err != nil {
		return "", err
	}
	p := tree.CleanPath(w.Path)
	cur, exists := files[p]
	if !exists || tree.BlobHash(cur) != w.SHA {
		return "", apperr.Errorf(apperr.RemoteWriteError, op, p, "sha does not match")
	}
	files[p] = append([]byte{}, w.Content...)
	f.writes = append(f.writes, "update "+p)
	return tree.BlobHash(w.Content), nil
}

func (f *Fake) DeleteFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	const op = "delete remote file"
	files, err := f.target(op, repo, w)
	if err != nil {
		return err
	}
	p := tree.CleanPath(w.Path)
	cur, exists := files[p]
	if !exists || tree.BlobHash(cur) != w.SHA {
		return apperr.Errorf(apperr.RemoteWriteError, op, p, "sha does not match")
	}
	delete(files, p)
	f.writes = append(f.writes, "delete "+p)
	return nil
}

func (f *Fake) CreateRepository(ctx context.Context, repo remote.Repo, opts remote.CreateOptions) (remote.RepoInfo, error) {
	f.mu.Lock()
	if f.login == "" {
		f.mu.Unlock()
		return remote.RepoInfo{}, apperr.Errorf(apperr.AuthError, "create repository", repo.String(), "authentication required")
	}
	if _, exists := f.repos[repo.String()]; exists {
		f.mu.Unlock()
		return remote.RepoInfo{}, apperr.Errorf(apperr.RemoteWriteError, "create repository", repo.String(), "name already exists")
	}
	f.created = append(f.created, opts)
	f.mu.Unlock()

	f.AddRepo(repo.String(), nil)
	f.SetInfo(repo.String(), func(info *remote.RepoInfo) {
		info.Private = opts.Private
		if opts.Private {
			info.Visibility = "private"
		}
	})
	return f.Repository(ctx, repo)
}

func (f *Fake) AuthenticatedLogin(ctx context.Context) (string, error) {
	if f.login == "" {
		return "", apperr.Errorf(apperr.AuthError, "get authenticated user", "", "no GitHub token configured")
	}
	return f.login, nil
}
