package syncer

import (
	"context"
	"errors"
	"strings"
	"time"

	"flashgh/internal/apperr"
	"flashgh/internal/logging"
	"flashgh/internal/remote"
	"flashgh/internal/tree"
)

const readmeFile = "README.md"

// Push uploads localDir to branch. Missing repositories are created first.
// Local-only files are created, changed files updated and identical files
// skipped; with so.Mirror set, remote-only files are deleted as well.
//
// Every write is its own commit carrying message. Writes run one at a time in
// path order and stop at the first failure, returning a PartialFailure that
// lists the paths already written. Nothing is rolled back.
func (e *Engine) Push(ctx context.Context, repo remote.Repo, branch remote.Branch, localDir, message string, so SyncOptions) (PushReport, error) {
	const op = "push"
	start := time.Now()

	if strings.TrimSpace(message) == "" {
		return PushReport{}, apperr.Errorf(apperr.InvalidInput, op, repo.String(), "commit message cannot be empty")
	}

	t, f, err := e.openLocal(op, localDir, so)
	if err != nil {
		return PushReport{}, err
	}
	localSnap, err := t.Snapshot(f)
	if err != nil {
		return PushReport{}, err
	}
	if localSnap.Len() == 0 {
		return PushReport{}, apperr.Errorf(apperr.InvalidInput, op, t.Root(), "no files to push after applying ignore rules")
	}

	report := PushReport{Repo: repo, Branch: branch}

	info, err := e.remote.Repository(ctx, repo)
	switch {
	case errors.Is(err, apperr.NotFound):
		info, err = e.createRepository(ctx, repo)
		if err != nil {
			return report, err
		}
		report.RepoCreated = true
	case err != nil:
		return report, err
	}
	report.RepoURL = info.HTMLURL

	var done []string
	if report.RepoCreated && e.opts.SeedReadme && !so.Mirror && !hasRootReadme(localSnap) {
		if _, err := e.remote.CreateFile(ctx, repo, remote.FileWrite{
			Path:    readmeFile,
			Content: []byte("# " + repo.Name + "\n"),
			Message: message,
			Branch:  branch,
		}); err != nil {
			return report, apperr.Partial(op, repo.String(), done, err)
		}
		report.SeededReadme = true
		done = append(done, readmeFile)
	}

	remoteSnap, err := e.remote.Snapshot(ctx, repo, branch)
	if err != nil {
		return report, apperr.Partial(op, repo.String(), done, err)
	}
	remoteSnap = f.Apply(remoteSnap)

	d := tree.Diff(remoteSnap, localSnap)
	report.Unchanged = d.UnchangedCount()

	apply := func(action, p string, write func() error) error {
		if err := ctx.Err(); err != nil {
			return apperr.Partial(op, repo.String(), done, err)
		}
		if err := write(); err != nil {
			return apperr.Partial(op, repo.String(), done, err)
		}
		done = append(done, p)
		logging.Debug("Pushed file", "repo", repo, "action", action, "path", p)
		return nil
	}

	for _, p := range d.Added {
		err := apply("create", p, func() error {
			data, err := t.ReadFile(p)
			if err != nil {
				return err
			}
			_, err = e.remote.CreateFile(ctx, repo, remote.FileWrite{Path: p, Content: data, Message: message, Branch: branch})
			return err
		})
		if err != nil {
			return report, err
		}
		report.Created = append(report.Created, p)
	}

	for _, p := range d.Modified {
		cur, _ := remoteSnap.Get(p)
		err := apply("update", p, func() error {
			data, err := t.ReadFile(p)
			if err != nil {
				return err
			}
			_, err = e.remote.UpdateFile(ctx, repo, remote.FileWrite{
				Path: p, Content: data, Message: message, Branch: branch, SHA: cur.Hash,
			})
			return err
		})
		if err != nil {
			return report, err
		}
		report.Updated = append(report.Updated, p)
	}

	if so.Mirror {
		for _, p := range d.Removed {
			cur, _ := remoteSnap.Get(p)
			err := apply("delete", p, func() error {
				return e.remote.DeleteFile(ctx, repo, remote.FileWrite{
					Path: p, Message: message, Branch: branch, SHA: cur.Hash,
				})
			})
			if err != nil {
				return report, err
			}
			report.Deleted = append(report.Deleted, p)
		}
	}

	logging.Info("Push completed", "repo", repo, "branch", branch, "created", len(report.Created),
		"updated", len(report.Updated), "deleted", len(report.Deleted), "unchanged", report.Unchanged)
	logging.LogPerformance("push", start)
	return report, nil
}

// createRepository creates repo under the authenticated user when the owner is
// the user's login, and under the owner organisation otherwise.
func (e *Engine) createRepository(ctx context.Context, repo remote.Repo) (remote.RepoInfo, error) {
	login, err := e.remote.AuthenticatedLogin(ctx)
	if err != nil {
		return remote.RepoInfo{}, err
	}
	opts := remote.CreateOptions{
		Private: e.opts.PrivateRepos,
		Org:     !strings.EqualFold(login, repo.Owner),
	}
	logging.Info("Repository not found, creating it", "repo", repo, "org", opts.Org)
	return e.remote.CreateRepository(ctx, repo, opts)
}

// readmeNames are root file names, lowercased, that count as an existing README.
var readmeNames = map[string]bool{
	"readme":          true,
	"readme.md":       true,
	"readme.markdown": true,
	"readme.rst":      true,
	"readme.txt":      true,
	"readme.adoc":     true,
}

func hasRootReadme(s tree.Snapshot) bool {
	for _, p := range s.Paths() {
		if !strings.Contains(p, "/") && readmeNames[strings.ToLower(p)] {
			return true
		}
	}
	return false
}

