package syncer

import (
	"context"

	"flashgh/internal/apperr"
	"flashgh/internal/config"
	"flashgh/internal/local"
	"flashgh/internal/logging"
	"flashgh/internal/remote"
	"flashgh/internal/tree"
	"flashgh/pkg/fileops"
)

// Remote is the GitHub side of every operation. *remote.Client implements it.
type Remote interface {
	Search(ctx context.Context, query string, limit int) ([]remote.RepoInfo, error)
	Repository(ctx context.Context, repo remote.Repo) (remote.RepoInfo, error)
	Contents(ctx context.Context, repo remote.Repo, path string, branch remote.Branch) (remote.Contents, error)
	List(ctx context.Context, repo remote.Repo, path string, branch remote.Branch, recursive bool) ([]tree.Entry, error)
	Read(ctx context.Context, repo remote.Repo, path string, branch remote.Branch) ([]byte, error)
	ReadBlob(ctx context.Context, repo remote.Repo, sha string) ([]byte, error)
	Snapshot(ctx context.Context, repo remote.Repo, branch remote.Branch) (tree.Snapshot, error)

	CreateFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) (string, error)
	UpdateFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) (string, error)
	DeleteFile(ctx context.Context, repo remote.Repo, w remote.FileWrite) error
	CreateRepository(ctx context.Context, repo remote.Repo, opts remote.CreateOptions) (remote.RepoInfo, error)
	AuthenticatedLogin(ctx context.Context) (string, error)
}

var _ Remote = (*remote.Client)(nil)

// Options holds engine-wide settings, normally taken from the config file.
type Options struct {
	Concurrency  int
	UseGitignore bool
	Ignore       []string
	SeedReadme   bool
	PrivateRepos bool

	DefaultSearchLimit int
	MaxSearchLimit     int
}

// OptionsFromConfig maps the sync and search config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Concurrency:        cfg.Sync.Concurrency,
		UseGitignore:       cfg.Sync.UseGitignore,
		Ignore:             append([]string(nil), cfg.Sync.Ignore...),
		SeedReadme:         cfg.Sync.SeedReadme,
		PrivateRepos:       cfg.Sync.PrivateRepos,
		DefaultSearchLimit: cfg.Search.DefaultLimit,
		MaxSearchLimit:     cfg.Search.MaxLimit,
	}
}

// SyncOptions narrows one compare, pull or push call.
type SyncOptions struct {
	// Include and Exclude are doublestar globs applied on top of the ignore rules.
	Include []string
	Exclude []string
	// Mirror makes push delete remote files that do not exist locally.
	Mirror bool
}

// Engine runs operations against one remote. It holds no per-call state.
type Engine struct {
	remote Remote
	opts   Options
}

// NewEngine returns an engine over r.
func NewEngine(r Remote, opts Options) *Engine {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxSearchLimit < 1 {
		opts.MaxSearchLimit = 100
	}
	if opts.DefaultSearchLimit < 1 || opts.DefaultSearchLimit > opts.MaxSearchLimit {
		opts.DefaultSearchLimit = min(10, opts.MaxSearchLimit)
	}
	return &Engine{remote: r, opts: opts}
}

func (e *Engine) filterOptions(so SyncOptions) local.FilterOptions {
	return local.FilterOptions{
		UseGitignore: e.opts.UseGitignore,
		Ignore:       e.opts.Ignore,
		Include:      so.Include,
		Exclude:      so.Exclude,
	}
}

// openLocal resolves dir and builds the filter for it.
func (e *Engine) openLocal(op, dir string, so SyncOptions) (*local.Tree, *local.Filter, error) {
	t, err := local.Open(fileops.ExpandPath(dir))
	if err != nil {
		return nil, nil, err
	}
	f, err := t.Filter(e.filterOptions(so))
	if err != nil {
		return nil, nil, apperr.New(apperr.InvalidInput, op, dir, err)
	}
	return t, f, nil
}

// snapshots returns the filtered local and remote snapshots.
func (e *Engine) snapshots(ctx context.Context, t *local.Tree, f *local.Filter, repo remote.Repo, branch remote.Branch) (localSnap, remoteSnap tree.Snapshot, err error) {
	localSnap, err = t.Snapshot(f)
	if err != nil {
		return tree.Snapshot{}, tree.Snapshot{}, err
	}
	remoteSnap, err = e.remote.Snapshot(ctx, repo, branch)
	if err != nil {
		return tree.Snapshot{}, tree.Snapshot{}, err
	}
	return localSnap, f.Apply(remoteSnap), nil
}

// Compare diffs localDir against branch without writing anything.
func (e *Engine) Compare(ctx context.Context, repo remote.Repo, branch remote.Branch, localDir string, so SyncOptions) (CompareReport, error) {
	t, f, err := e.openLocal("compare", localDir, so)
	if err != nil {
		return CompareReport{}, err
	}
	localSnap, remoteSnap, err := e.snapshots(ctx, t, f, repo, branch)
	if err != nil {
		return CompareReport{}, err
	}

	d := tree.Diff(localSnap, remoteSnap)
	logging.Debug("Compare completed", "repo", repo, "branch", branch,
		"remote_only", len(d.Added), "local_only", len(d.Removed), "modified", len(d.Modified))

	return CompareReport{
		Repo:        repo,
		Branch:      branch,
		LocalDir:    t.Root(),
		Diff:        d,
		LocalFiles:  localSnap.Len(),
		RemoteFiles: remoteSnap.Len(),
	}, nil
}

// Search finds repositories. A limit outside 1..MaxSearchLimit is clamped, and
// zero selects the default.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]remote.RepoInfo, error) {
	switch {
	case limit <= 0:
		limit = e.opts.DefaultSearchLimit
	case limit > e.opts.MaxSearchLimit:
		limit = e.opts.MaxSearchLimit
	}
	return e.remote.Search(ctx, query, limit)
}

// Browse returns repository metadata and the file or directory at path. For
// files, Content is filled when includeContent is set, fetching the blob when
// the contents API did not inline it.
func (e *Engine) Browse(ctx context.Context, repo remote.Repo, path string, branch remote.Branch, includeContent bool) (BrowseResult, error) {
	info, err := e.remote.Repository(ctx, repo)
	if err != nil {
		return BrowseResult{}, err
	}
	ref := branch.Name()
	if branch.IsDefault() {
		ref = info.DefaultBranch
	}

	res := BrowseResult{Repo: info, Ref: ref, Path: tree.CleanPath(path), IncludeContent: includeContent}
	cont, err := e.remote.Contents(ctx, repo, path, branch)
	if err != nil {
		return BrowseResult{}, err
	}
	res.Contents = cont

	if !cont.Dir && includeContent && cont.Content == nil {
		data, err := e.remote.ReadBlob(ctx, repo, cont.File.SHA)
		if err != nil {
			return BrowseResult{}, err
		}
		res.Contents.Content = data
	}
	if !includeContent {
		res.Contents.Content = nil
	}
	return res, nil
}

// Tree lists everything under path recursively.
func (e *Engine) Tree(ctx context.Context, repo remote.Repo, path string, branch remote.Branch) ([]tree.Entry, error) {
	return e.remote.List(ctx, repo, path, branch, true)
}

// Cat returns the content of one remote file.
func (e *Engine) Cat(ctx context.Context, repo remote.Repo, path string, branch remote.Branch) ([]byte, error) {
	return e.remote.Read(ctx, repo, path, branch)
}
