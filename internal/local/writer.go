package local

import (
	"os"

	"flashgh/internal/apperr"
	"flashgh/internal/tree"
	"flashgh/pkg/fileops"
)

const filePerm os.FileMode = 0o644

// Writer lays files down beneath a tree. It is safe for concurrent use as long
// as callers write distinct paths.
type Writer struct {
	t *Tree
}

// Writer returns a writer for the tree.
func (t *Tree) Writer() *Writer {
	return &Writer{t: t}
}

// WriteFile writes data to rel, creating parent directories. rel must stay
// inside the tree and may not pass through a symlink. The write is atomic: readers see the old content or the new
// content, never a mix.
func (w *Writer) WriteFile(rel string, data []byte) error {
	const op = "write local file"

	clean, err := validate(op, rel)
	if err != nil {
		return err
	}
	if err := w.t.checkNoSymlinks(op, clean); err != nil {
		return err
	}
	if err := fileops.AtomicWriteFile(w.t.fs, clean, data, filePerm); err != nil {
		return apperr.New(apperr.LocalWriteError, op, clean, err)
	}
	return nil
}

func validate(op, rel string) (string, error) {
	if err := fileops.ValidateRelativePath(rel); err != nil {
		return "", apperr.New(apperr.InvalidPath, op, rel, err)
	}
	return tree.CleanPath(rel), nil
}
