// Package syncer runs the caller-facing operations: search, browse, compare,
// pull and push.
//
// Every operation is one linear pass. Pull and push take a local snapshot and
// a remote snapshot, filter both with the same rules, diff them and apply the
// difference in one direction:
//
//	pull: remote -> local, parallel blob downloads, never deletes
//	push: local -> remote, one contents API commit per file, deletes only in
//	      mirror mode
//
// Nothing is cached between calls and nothing is rolled back. A failure while
// applying returns an apperr.PartialFailure listing the paths already written.
package syncer
