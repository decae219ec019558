package syncer

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"flashgh/internal/apperr"
	"flashgh/internal/local"
	"flashgh/internal/logging"
	"flashgh/internal/remote"
	"flashgh/internal/tree"
	"flashgh/pkg/fileops"

	"golang.org/x/sync/errgroup"
)

// Pull writes every remote file on branch into localDir, creating the
// directory and any parents. Local files absent from the remote are left alone.
//
// Downloads run in parallel up to the configured concurrency. The first failure
// cancels the rest and Pull returns a PartialFailure listing the files already
// written.
func (e *Engine) Pull(ctx context.Context, repo remote.Repo, branch remote.Branch, localDir string, so SyncOptions) (PullReport, error) {
	const op = "pull"
	start := time.Now()

	dir, err := fileops.ResolveLocalDir(localDir)
	if err != nil {
		return PullReport{}, apperr.New(apperr.InvalidPath, op, localDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return PullReport{}, apperr.New(apperr.LocalWriteError, op, dir, err)
	}

	t, f, err := e.openLocal(op, dir, so)
	if err != nil {
		return PullReport{}, err
	}
	snap, err := e.remote.Snapshot(ctx, repo, branch)
	if err != nil {
		return PullReport{}, err
	}
	entries := f.Apply(snap).Entries()

	report := PullReport{Repo: repo, Branch: branch, LocalDir: dir}
	w := t.Writer()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for _, ent := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := e.pullFile(gctx, repo, w, ent)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Written = append(report.Written, ent.Path)
			report.Bytes += n
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	sort.Strings(report.Written)
	if err != nil {
		logging.Error("Pull aborted", "repo", repo, "written", len(report.Written), "error", err)
		return report, apperr.Partial(op, repo.String(), report.Written, err)
	}

	logging.Info("Pull completed", "repo", repo, "branch", branch, "dir", dir, "files", len(report.Written))
	logging.LogPerformance("pull", start)
	return report, nil
}

func (e *Engine) pullFile(ctx context.Context, repo remote.Repo, w *local.Writer, ent tree.Entry) (int64, error) {
	data, err := e.remote.ReadBlob(ctx, repo, ent.Hash)
	if err != nil {
		kind := apperr.KindOf(err)
		if kind == "" {
			kind = apperr.RemoteError
		}
		return 0, apperr.New(kind, "download file", ent.Path, err)
	}
	if int64(len(data)) != ent.Size {
		return 0, apperr.Errorf(apperr.RemoteError, "download file", ent.Path,
			"received %d bytes, expected %d", len(data), ent.Size)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := w.WriteFile(ent.Path, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
