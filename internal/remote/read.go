package remote

import (
	"context"
	"path"
	"strings"

	"flashgh/internal/apperr"
	"flashgh/internal/logging"
	"flashgh/internal/tree"

	"github.com/google/go-github/v59/github"
)

// Symlinks are stored as blobs with this mode; they never become local files.
const modeSymlink = "120000"

// Search returns up to limit repositories matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]RepoInfo, error) {
	const op = "search repositories"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Errorf(apperr.InvalidInput, op, "", "query cannot be empty")
	}
	if limit < 1 {
		return nil, apperr.Errorf(apperr.InvalidInput, op, query, "limit must be positive, got %d", limit)
	}

	res, _, err := c.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, classify(op, query, err)
	}

	repos := res.Repositories
	if len(repos) > limit {
		repos = repos[:limit]
	}
	out := make([]RepoInfo, 0, len(repos))
	for _, r := range repos {
		out = append(out, repoInfo(r))
	}
	logging.Debug("Search completed", "query", query, "total", res.GetTotal(), "returned", len(out))
	return out, nil
}

// Repository returns metadata for repo.
func (c *Client) Repository(ctx context.Context, repo Repo) (RepoInfo, error) {
	r, _, err := c.gh.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return RepoInfo{}, classify("get repository", repo.String(), err)
	}
	return repoInfo(r), nil
}

// Contents returns the file or directory at p.
func (c *Client) Contents(ctx context.Context, repo Repo, p string, branch Branch) (Contents, error) {
	const op = "get contents"

	p = tree.CleanPath(p)
	file, dir, _, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, p,
		&github.RepositoryContentGetOptions{Ref: branch.Name()})
	if err != nil {
		return Contents{}, classify(op, displayPath(repo, p), err)
	}

	if file == nil {
		items := make([]Item, 0, len(dir))
		for _, d := range dir {
			items = append(items, item(d))
		}
		return Contents{Dir: true, Items: items}, nil
	}

	out := Contents{File: item(file)}
	if file.Content != nil && file.GetEncoding() != "none" {
		text, err := file.GetContent()
		if err != nil {
			return Contents{}, apperr.New(apperr.RemoteError, op, displayPath(repo, p), err)
		}
		out.Content = []byte(text)
	}
	return out, nil
}

// Read returns the content of the file at p. Files too large to be inlined by
// the contents API are fetched as blobs.
func (c *Client) Read(ctx context.Context, repo Repo, p string, branch Branch) ([]byte, error) {
	cont, err := c.Contents(ctx, repo, p, branch)
	if err != nil {
		return nil, err
	}
	if cont.Dir {
		return nil, apperr.Errorf(apperr.InvalidInput, "read file", displayPath(repo, p), "path is a directory")
	}
	if cont.Content != nil {
		return cont.Content, nil
	}
	return c.ReadBlob(ctx, repo, cont.File.SHA)
}

// ReadBlob returns the raw content of the blob with the given SHA.
func (c *Client) ReadBlob(ctx context.Context, repo Repo, sha string) ([]byte, error) {
	data, _, err := c.gh.Git.GetBlobRaw(ctx, repo.Owner, repo.Name, sha)
	if err != nil {
		return nil, classify("read blob", repo.String()+"@"+sha, err)
	}
	return data, nil
}

// List returns the entries under p. Without recursive it lists one level via the
// contents API; with recursive it uses the git trees API and falls back to a
// contents walk when GitHub truncates the tree. Paths are repository-relative.
func (c *Client) List(ctx context.Context, repo Repo, p string, branch Branch, recursive bool) ([]tree.Entry, error) {
	p = tree.CleanPath(p)

	if !recursive {
		cont, err := c.Contents(ctx, repo, p, branch)
		if err != nil {
			return nil, err
		}
		if !cont.Dir {
			return []tree.Entry{itemEntry(cont.File)}, nil
		}
		entries := make([]tree.Entry, 0, len(cont.Items))
		for _, it := range cont.Items {
			entries = append(entries, itemEntry(it))
		}
		return tree.NewSnapshot(entries...).Entries(), nil
	}

	ref, err := c.resolveRef(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	all, err := c.tree(ctx, repo, ref, true)
	if err != nil {
		return nil, err
	}

	var out []tree.Entry
	for _, e := range all {
		if p == "" || strings.HasPrefix(e.Path, p+"/") {
			out = append(out, e)
		}
	}
	if p != "" && len(out) == 0 {
		return nil, apperr.Errorf(apperr.NotFound, "list repository", displayPath(repo, p), "no such directory on %s", branch)
	}
	return out, nil
}

// Snapshot returns every regular file on branch with its size and blob SHA. An
// empty repository yields an empty snapshot.
func (c *Client) Snapshot(ctx context.Context, repo Repo, branch Branch) (tree.Snapshot, error) {
	ref, err := c.resolveRef(ctx, repo, branch)
	if err != nil {
		return tree.Snapshot{}, err
	}
	entries, err := c.tree(ctx, repo, ref, false)
	if isEmptyRepository(err) {
		logging.Debug("Repository is empty", "repo", repo)
		return tree.NewSnapshot(), nil
	}
	if err != nil {
		return tree.Snapshot{}, err
	}
	logging.Debug("Remote snapshot built", "repo", repo, "ref", ref, "files", len(entries))
	return tree.NewSnapshot(entries...), nil
}

func (c *Client) resolveRef(ctx context.Context, repo Repo, branch Branch) (string, error) {
	if !branch.IsDefault() {
		return branch.Name(), nil
	}
	info, err := c.Repository(ctx, repo)
	if err != nil {
		return "", err
	}
	return info.DefaultBranch, nil
}

// tree lists ref recursively. withDirs keeps directory entries. The returned
// error is unclassified when it reports an empty repository so callers can
// tell that case apart.
func (c *Client) tree(ctx context.Context, repo Repo, ref string, withDirs bool) ([]tree.Entry, error) {
	const op = "read tree"

	t, _, err := c.gh.Git.GetTree(ctx, repo.Owner, repo.Name, ref, true)
	if isEmptyRepository(err) {
		return nil, err
	}
	if err != nil {
		return nil, classify(op, repo.String()+"@"+ref, err)
	}

	if t.GetTruncated() {
		logging.Warn("Tree truncated by GitHub, walking contents instead", "repo", repo, "ref", ref)
		return c.walk(ctx, repo, "", NamedBranch(ref), withDirs)
	}

	var out []tree.Entry
	for _, e := range t.Entries {
		switch {
		case e.GetType() == "tree":
			if withDirs {
				out = append(out, tree.Entry{Path: e.GetPath(), Kind: tree.KindDirectory})
			}
		case e.GetType() == "blob" && e.GetMode() != modeSymlink:
			out = append(out, tree.Entry{
				Path: e.GetPath(),
				Kind: tree.KindFile,
				Size: int64(e.GetSize()),
				Hash: e.GetSHA(),
			})
		}
	}
	return out, nil
}

// walk lists dir and everything below it through the contents API, one request
// per directory.
func (c *Client) walk(ctx context.Context, repo Repo, dir string, branch Branch, withDirs bool) ([]tree.Entry, error) {
	cont, err := c.Contents(ctx, repo, dir, branch)
	if err != nil {
		return nil, err
	}
	if !cont.Dir {
		return []tree.Entry{itemEntry(cont.File)}, nil
	}

	var out []tree.Entry
	for _, it := range cont.Items {
		switch it.Type {
		case "dir":
			if withDirs {
				out = append(out, itemEntry(it))
			}
			sub, err := c.walk(ctx, repo, it.Path, branch, withDirs)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case "file":
			out = append(out, itemEntry(it))
		}
	}
	return out, nil
}

func itemEntry(it Item) tree.Entry {
	kind := tree.KindFile
	if it.Type == "dir" || it.Type == "submodule" {
		kind = tree.KindDirectory
	}
	e := tree.Entry{Path: it.Path, Kind: kind, Hash: it.SHA}
	if kind == tree.KindFile {
		e.Size = it.Size
	}
	return e
}

func displayPath(repo Repo, p string) string {
	if p == "" {
		return repo.String()
	}
	return path.Join(repo.String(), p)
}
