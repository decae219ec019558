package fileops

import (
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"
)

// AtomicWriteFile writes data to name on fs. The data goes to a temporary file in
// the destination directory first and is renamed into place, so the destination
// either holds the previous content or the complete new content.
//
// Parent directories are created as needed. Existing files are overwritten.
func AtomicWriteFile(fs billy.Filesystem, name string, data []byte, perm os.FileMode) error {
	dir := path.Dir(name)
	if err := EnsureDirectoryExists(fs, dir); err != nil {
		return err
	}

	tmp, err := fs.TempFile(dir, "."+path.Base(name)+".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	var done bool
	defer func() {
		if !done {
			tmp.Close()
			fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if s, ok := tmp.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("failed to sync file: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := fs.Rename(tmpName, name); err != nil {
		fs.Remove(tmpName)
		done = true
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	if c, ok := fs.(billy.Change); ok {
		// Not every billy backend supports permissions.
		_ = c.Chmod(name, perm)
	}

	done = true
	return nil
}

// EnsureDirectoryExists creates dir and any missing parents on fs. It is safe to
// call repeatedly.
func EnsureDirectoryExists(fs billy.Filesystem, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
