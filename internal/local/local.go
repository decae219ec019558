// Package local reads and writes the local side of a sync: a directory walked
// into a tree.Snapshot, and a writer that lays remote files down beneath it.
package local

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"flashgh/internal/apperr"
	"flashgh/internal/logging"
	"flashgh/internal/tree"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-billy/v6/util"
)

// Tree is a local directory tree.
type Tree struct {
	root string
	fs   billy.Filesystem
}

// Open returns the tree rooted at root, which must be an existing directory.
func Open(root string) (*Tree, error) {
	const op = "open local directory"

	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Errorf(apperr.InvalidPath, op, root, "directory does not exist")
	}
	if err != nil {
		return nil, apperr.New(apperr.InvalidPath, op, root, err)
	}
	if !info.IsDir() {
		return nil, apperr.Errorf(apperr.InvalidPath, op, root, "not a directory")
	}
	return &Tree{root: root, fs: osfs.New(root)}, nil
}

// FromFilesystem wraps an existing billy filesystem. root is used only in
// error messages.
func FromFilesystem(fs billy.Filesystem, root string) *Tree {
	return &Tree{root: root, fs: fs}
}

// Root returns the directory the tree was opened on.
func (t *Tree) Root() string { return t.root }

// Filesystem returns the billy filesystem rooted at the tree.
func (t *Tree) Filesystem() billy.Filesystem { return t.fs }

// Filter builds a sync filter that honours this tree's .gitignore.
func (t *Tree) Filter(opts FilterOptions) (*Filter, error) {
	return NewFilter(t.fs, opts)
}

// Snapshot walks the tree and returns every regular file the filter allows,
// hashed as a git blob. Symlinks are skipped, not followed.
func (t *Tree) Snapshot(f *Filter) (tree.Snapshot, error) {
	const op = "read local directory"

	var entries []tree.Entry
	err := util.Walk(t.fs, "/", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := tree.CleanPath(filepath.ToSlash(name))
		if rel == "" {
			return nil
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			logging.Debug("Skipping symlink", "path", rel)
			return nil
		case info.IsDir():
			if !f.Allows(rel, true) {
				return filepath.SkipDir
			}
			return nil
		case !info.Mode().IsRegular():
			return nil
		case !f.Allows(rel, false):
			return nil
		}

		hash, err := t.hashFile(rel, info.Size())
		if err != nil {
			return err
		}
		entries = append(entries, tree.Entry{
			Path: rel,
			Kind: tree.KindFile,
			Size: info.Size(),
			Hash: hash,
		})
		return nil
	})
	if err != nil {
		return tree.Snapshot{}, apperr.New(apperr.InvalidPath, op, t.root, err)
	}

	logging.Debug("Local snapshot built", "root", t.root, "files", len(entries))
	return tree.NewSnapshot(entries...), nil
}

func (t *Tree) hashFile(rel string, size int64) (string, error) {
	f, err := t.fs.Open(rel)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := tree.BlobHashReader(f, size)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", rel, err)
	}
	return h, nil
}

// ReadFile returns the content of rel.
func (t *Tree) ReadFile(rel string) ([]byte, error) {
	const op = "read local file"

	clean, err := validate(op, rel)
	if err != nil {
		return nil, err
	}
	if err := t.checkNoSymlinks(op, clean); err != nil {
		return nil, err
	}
	data, err := util.ReadFile(t.fs, clean)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.New(apperr.NotFound, op, clean, err)
	}
	if err != nil {
		return nil, apperr.New(apperr.InvalidPath, op, clean, err)
	}
	return data, nil
}

// checkNoSymlinks rejects rel when it or any of its existing parent
// directories is a symlink, since following one could leave the tree.
func (t *Tree) checkNoSymlinks(op, rel string) error {
	var prefix string
	for _, part := range strings.Split(rel, "/") {
		prefix = path.Join(prefix, part)
		info, err := t.fs.Lstat(prefix)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return apperr.New(apperr.InvalidPath, op, rel, err)
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return apperr.Errorf(apperr.InvalidPath, op, rel, "%s is a symlink", prefix)
		}
	}
	return nil
}

// Snapshot opens root and snapshots it in one step.
func Snapshot(root string, f *Filter) (tree.Snapshot, error) {
	t, err := Open(root)
	if err != nil {
		return tree.Snapshot{}, err
	}
	return t.Snapshot(f)
}
