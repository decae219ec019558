package mcp

import (
	"context"
	"time"

	"flashgh/internal/logging"
	"flashgh/internal/remote"
	"flashgh/internal/report"
	"flashgh/internal/syncer"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool names.
const (
	ToolSearch  = "search_repositories"
	ToolBrowse  = "browse_repository"
	ToolPull    = "pull_from_repository"
	ToolPush    = "push_to_repository"
	ToolCompare = "compare_repository"
)

const defaultSearchLimit = 10

var stringItems = map[string]any{"type": "string"}

func repoParam() mcp.ToolOption {
	return mcp.WithString("repo_path",
		mcp.Required(),
		mcp.Description("Repository in owner/name form, e.g. octocat/Hello-World"),
	)
}

func branchParam() mcp.ToolOption {
	return mcp.WithString("branch",
		mcp.Description("Branch to use; empty means the repository's default branch"),
	)
}

func localDirParam(desc string) mcp.ToolOption {
	return mcp.WithString("local_dir", mcp.Required(), mcp.Description(desc))
}

func patternParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithArray("include_patterns",
			mcp.Description("Only paths matching one of these globs are considered (supports **)"),
			mcp.Items(stringItems),
		),
		mcp.WithArray("exclude_patterns",
			mcp.Description("Paths matching any of these globs are skipped (supports **)"),
			mcp.Items(stringItems),
		),
	}
}

func (s *Server) buildTools() []server.ServerTool {
	search := mcp.NewTool(ToolSearch,
		mcp.WithDescription("Search GitHub repositories by query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("GitHub search query")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of repositories to return"),
			mcp.DefaultNumber(defaultSearchLimit),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	browse := mcp.NewTool(ToolBrowse,
		mcp.WithDescription("Show repository information and list a directory or read a file"),
		repoParam(),
		mcp.WithString("path", mcp.Description("Path inside the repository; empty means the root")),
		branchParam(),
		mcp.WithBoolean("include_content",
			mcp.Description("Include the file's content when path is a file"),
			mcp.DefaultBool(false),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	pullOpts := []mcp.ToolOption{
		mcp.WithDescription("Download a repository's files into a local directory"),
		repoParam(),
		localDirParam("Directory to write files into; created if missing"),
		branchParam(),
	}
	pullOpts = append(pullOpts, patternParams()...)
	pullOpts = append(pullOpts, mcp.WithDestructiveHintAnnotation(true))
	pull := mcp.NewTool(ToolPull, pullOpts...)

	pushOpts := []mcp.ToolOption{
		mcp.WithDescription("Upload new and changed local files to a repository, creating it if needed"),
		repoParam(),
		localDirParam("Directory whose files are uploaded"),
		mcp.WithString("commit_message", mcp.Required(), mcp.Description("Commit message for every write")),
		branchParam(),
		mcp.WithBoolean("mirror",
			mcp.Description("Also delete remote files that do not exist locally"),
			mcp.DefaultBool(false),
		),
	}
	pushOpts = append(pushOpts, patternParams()...)
	pushOpts = append(pushOpts, mcp.WithDestructiveHintAnnotation(true))
	push := mcp.NewTool(ToolPush, pushOpts...)

	compareOpts := []mcp.ToolOption{
		mcp.WithDescription("Compare a local directory with a repository"),
		repoParam(),
		localDirParam("Local directory to compare"),
		branchParam(),
	}
	compareOpts = append(compareOpts, patternParams()...)
	compareOpts = append(compareOpts, mcp.WithReadOnlyHintAnnotation(true))
	compare := mcp.NewTool(ToolCompare, compareOpts...)

	return []server.ServerTool{
		{Tool: search, Handler: s.handleSearch},
		{Tool: browse, Handler: s.handleBrowse},
		{Tool: pull, Handler: s.handlePull},
		{Tool: push, Handler: s.handlePush},
		{Tool: compare, Handler: s.handleCompare},
	}
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer logging.LogPerformance(ToolSearch, time.Now())

	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)

	repos, err := s.engine.Search(ctx, query, limit)
	if err != nil {
		return s.failure("search", err), nil
	}
	return mcp.NewToolResultText(report.Search(repos)), nil
}

func (s *Server) handleBrowse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer logging.LogPerformance(ToolBrowse, time.Now())

	repo, err := repoArg(req)
	if err != nil {
		return s.failure("browse", err), nil
	}
	res, err := s.engine.Browse(ctx, repo,
		req.GetString("path", ""),
		remote.BranchFromArg(req.GetString("branch", "")),
		req.GetBool("include_content", false),
	)
	if err != nil {
		return s.failure("browse", err), nil
	}
	return mcp.NewToolResultText(report.Browse(res)), nil
}

func (s *Server) handlePull(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer logging.LogPerformance(ToolPull, time.Now())

	repo, dir, err := syncArgs(req)
	if err != nil {
		return s.failure("pull", err), nil
	}
	res, err := s.engine.Pull(ctx, repo, branchArg(req), dir, syncOptions(req))
	if err != nil {
		return s.failure("pull", err), nil
	}
	return mcp.NewToolResultText(report.Pull(res)), nil
}

func (s *Server) handlePush(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer logging.LogPerformance(ToolPush, time.Now())

	repo, dir, err := syncArgs(req)
	if err != nil {
		return s.failure("push", err), nil
	}
	message, err := req.RequireString("commit_message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.engine.Push(ctx, repo, branchArg(req), dir, message, syncOptions(req))
	if err != nil {
		return s.failure("push", err), nil
	}
	return mcp.NewToolResultText(report.Push(res)), nil
}

func (s *Server) handleCompare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defer logging.LogPerformance(ToolCompare, time.Now())

	repo, dir, err := syncArgs(req)
	if err != nil {
		return s.failure("compare", err), nil
	}
	res, err := s.engine.Compare(ctx, repo, branchArg(req), dir, syncOptions(req))
	if err != nil {
		return s.failure("compare", err), nil
	}
	return mcp.NewToolResultText(report.Compare(res)), nil
}

func (s *Server) failure(op string, err error) *mcp.CallToolResult {
	s.logger.With("op", op).Error("Tool failed", "error", err)
	return mcp.NewToolResultError(report.Error(op, err))
}

func repoArg(req mcp.CallToolRequest) (remote.Repo, error) {
	raw, err := req.RequireString("repo_path")
	if err != nil {
		return remote.Repo{}, err
	}
	return remote.ParseRepo(raw)
}

func syncArgs(req mcp.CallToolRequest) (remote.Repo, string, error) {
	repo, err := repoArg(req)
	if err != nil {
		return remote.Repo{}, "", err
	}
	dir, err := req.RequireString("local_dir")
	if err != nil {
		return remote.Repo{}, "", err
	}
	return repo, dir, nil
}

func branchArg(req mcp.CallToolRequest) remote.Branch {
	return remote.BranchFromArg(req.GetString("branch", ""))
}

func syncOptions(req mcp.CallToolRequest) syncer.SyncOptions {
	return syncer.SyncOptions{
		Include: req.GetStringSlice("include_patterns", nil),
		Exclude: req.GetStringSlice("exclude_patterns", nil),
		Mirror:  req.GetBool("mirror", false),
	}
}
