// Package fileops provides the path validation and atomic write helpers used when
// tree content crosses between a remote repository and the local filesystem.
//
// # Path Validation
//
// Paths reaching the local filesystem come from two untrusted places:
//
//  1. The caller, naming a local directory (ResolveLocalDir). The directory is
//     expanded ("~/"), made absolute and refused when it is a system location
//     (IsReservedDirectory).
//  2. The remote tree, naming files relative to that directory
//     (ValidateRelativePath). Absolute paths and ".." segments are refused so a
//     repository cannot write outside the directory it is pulled into.
//
// # Atomic Writes
//
// AtomicWriteFile writes through a billy.Filesystem using a temporary file in the
// destination directory followed by a rename, so a reader never observes a
// half-written file:
//
//	fs := osfs.New(root)
//	if err := fileops.AtomicWriteFile(fs, "docs/guide.md", data, 0o644); err != nil {
//	    return fmt.Errorf("write failed: %w", err)
//	}
package fileops
