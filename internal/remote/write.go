package remote

import (
	"context"

	"flashgh/internal/apperr"
	"flashgh/internal/logging"
	"flashgh/internal/tree"
	"flashgh/pkg/fileops"

	"github.com/google/go-github/v59/github"
)

// CreateFile commits a new file and returns its blob SHA.
func (c *Client) CreateFile(ctx context.Context, repo Repo, w FileWrite) (string, error) {
	const op = "create remote file"

	p, err := writePath(op, w.Path)
	if err != nil {
		return "", err
	}
	res, _, err := c.gh.Repositories.CreateFile(ctx, repo.Owner, repo.Name, p, &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		Content: contentBytes(w.Content),
		Branch:  w.Branch.ptr(),
	})
	if err != nil {
		return "", classifyWrite(op, displayPath(repo, p), err)
	}
	logging.Debug("Created remote file", "repo", repo, "path", p)
	return res.GetContent().GetSHA(), nil
}

// UpdateFile commits new content for an existing file. w.SHA must hold the
// file's current blob SHA.
func (c *Client) UpdateFile(ctx context.Context, repo Repo, w FileWrite) (string, error) {
	const op = "update remote file"

	p, err := writePath(op, w.Path)
	if err != nil {
		return "", err
	}
	if w.SHA == "" {
		return "", apperr.Errorf(apperr.InvalidInput, op, displayPath(repo, p), "current blob SHA is required")
	}
	res, _, err := c.gh.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, p, &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		Content: contentBytes(w.Content),
		SHA:     github.String(w.SHA),
		Branch:  w.Branch.ptr(),
	})
	if err != nil {
		return "", classifyWrite(op, displayPath(repo, p), err)
	}
	logging.Debug("Updated remote file", "repo", repo, "path", p)
	return res.GetContent().GetSHA(), nil
}

// DeleteFile commits the removal of a file. w.SHA must hold the file's current
// blob SHA.
func (c *Client) DeleteFile(ctx context.Context, repo Repo, w FileWrite) error {
	const op = "delete remote file"

	p, err := writePath(op, w.Path)
	if err != nil {
		return err
	}
	if w.SHA == "" {
		return apperr.Errorf(apperr.InvalidInput, op, displayPath(repo, p), "current blob SHA is required")
	}
	_, _, err = c.gh.Repositories.DeleteFile(ctx, repo.Owner, repo.Name, p, &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		SHA:     github.String(w.SHA),
		Branch:  w.Branch.ptr(),
	})
	if err != nil {
		return classifyWrite(op, displayPath(repo, p), err)
	}
	logging.Debug("Deleted remote file", "repo", repo, "path", p)
	return nil
}

// CreateRepository creates repo, under the owner organisation when opts.Org is
// set and under the authenticated user otherwise. The repository starts empty.
func (c *Client) CreateRepository(ctx context.Context, repo Repo, opts CreateOptions) (RepoInfo, error) {
	const op = "create repository"

	org := ""
	if opts.Org {
		org = repo.Owner
	}
	r, _, err := c.gh.Repositories.Create(ctx, org, &github.Repository{
		Name:        github.String(repo.Name),
		Description: github.String(opts.Description),
		Private:     github.Bool(opts.Private),
		AutoInit:    github.Bool(false),
	})
	if err != nil {
		return RepoInfo{}, classifyWrite(op, repo.String(), err)
	}
	logging.Info("Created repository", "repo", r.GetFullName(), "private", opts.Private)
	return repoInfo(r), nil
}

// AuthenticatedLogin returns the login of the token's user.
func (c *Client) AuthenticatedLogin(ctx context.Context) (string, error) {
	const op = "get authenticated user"

	if c.anonymous {
		return "", apperr.Errorf(apperr.AuthError, op, "", "no GitHub token configured")
	}
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", classify(op, "", err)
	}
	return u.GetLogin(), nil
}

func writePath(op, p string) (string, error) {
	if err := fileops.ValidateRelativePath(p); err != nil {
		return "", apperr.New(apperr.InvalidPath, op, p, err)
	}
	return tree.CleanPath(p), nil
}

// contentBytes keeps empty files from being sent as a missing content field.
func contentBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
