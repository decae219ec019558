// Package mcp exposes flashgh's operations as Model Context Protocol tools
// using mcp-go.
//
// # Tools
//
//   - search_repositories(query, limit=10)
//   - browse_repository(repo_path, path="", branch="", include_content=false)
//   - pull_from_repository(repo_path, local_dir, branch="", include_patterns, exclude_patterns)
//   - push_to_repository(repo_path, local_dir, commit_message, branch="", mirror=false,
//     include_patterns, exclude_patterns)
//   - compare_repository(repo_path, local_dir, branch="", include_patterns, exclude_patterns)
//
// An empty branch selects the repository's default branch. Every tool returns
// plain text; failures come back as error results naming the operation, the
// path involved and the cause, never as protocol errors.
//
// # Transport
//
// The server speaks JSON-RPC 2.0 over stdin/stdout. Logs go to stderr (or the
// debug log file when DEBUG is set) so they never corrupt the protocol stream:
//
//	flashgh serve
//
// # Safety
//
// Only push writes to GitHub, and only the files that differ. Deleting remote
// files requires mirror=true. Pull writes beneath local_dir only and refuses
// system and credential directories.
package mcp
