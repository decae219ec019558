// Package apperr defines the error taxonomy shared by the remote reader, the local
// reader and the sync engine.
//
// Every failure that reaches a caller is an *Error carrying a Kind, the operation
// that failed and, where one exists, the offending path. Kinds are comparable with
// errors.Is against the exported Kind values:
//
//	if errors.Is(err, apperr.NotFound) { ... }
//
// A PartialFailure wraps the error that stopped a multi-file pull or push; the
// wrapped cause keeps its own kind, so both checks succeed on the same error.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure. Kinds are strings so they read well in logs and in
// tool results.
type Kind string

const (
	// NotFound indicates a missing repository, path or branch.
	NotFound Kind = "not_found"

	// InvalidPath indicates a local directory that does not exist, is not a
	// directory, or a path that would escape its root.
	InvalidPath Kind = "invalid_path"

	// InvalidInput indicates a malformed argument such as a repository path that is
	// not "owner/name" or an empty commit message.
	InvalidInput Kind = "invalid_input"

	// AuthError indicates the remote rejected (or required) credentials.
	AuthError Kind = "auth_error"

	// RateLimited indicates the remote refused the call because of rate limiting.
	RateLimited Kind = "rate_limited"

	// RemoteError is any other failure talking to the remote.
	RemoteError Kind = "remote_error"

	// RemoteWriteError indicates a failed repository creation or file write.
	RemoteWriteError Kind = "remote_write_error"

	// LocalWriteError indicates a failed local file or directory write.
	LocalWriteError Kind = "local_write_error"

	// PartialFailure indicates a multi-file pull or push aborted after it started
	// writing. Writes completed before the failure are not undone.
	PartialFailure Kind = "partial_failure"
)

// Error implements error so a Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return string(k)
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "pull" or "read".
	Op string
	// Path is the repository path, file path or local directory involved, if any.
	Path string
	// Err is the underlying cause.
	Err error
	// Completed lists the paths written before a PartialFailure.
	Completed []string
}

// New returns a classified error.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Errorf returns a classified error whose cause is built from a format string.
func Errorf(kind Kind, op, path, format string, args ...any) *Error {
	return New(kind, op, path, fmt.Errorf(format, args...))
}

// Partial wraps cause as a PartialFailure recording the already completed paths.
func Partial(op, path string, completed []string, cause error) *Error {
	done := make([]string, len(completed))
	copy(done, completed)
	return &Error{Kind: PartialFailure, Op: op, Path: path, Err: cause, Completed: done}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%q", e.Path)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if there is
// none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Completed returns the paths written before a PartialFailure anywhere in err's
// chain.
func Completed(err error) []string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return nil
		}
		if e.Kind == PartialFailure {
			return e.Completed
		}
		err = e.Err
	}
	return nil
}
