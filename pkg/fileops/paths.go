package fileops

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandPath expands a leading "~/" to the user's home directory.
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/src/project")
//	// Returns something like "/home/user/src/project"
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	return p
}

// ResolveLocalDir turns a caller supplied directory into a clean absolute path.
// It does not touch the filesystem beyond resolving symlinks for the reserved
// directory check.
//
// Returns an error when the path is empty, contains a NUL byte, or names a
// reserved system directory.
func ResolveLocalDir(dir string) (string, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return "", fmt.Errorf("directory cannot be empty")
	}
	if strings.ContainsRune(trimmed, 0) {
		return "", fmt.Errorf("directory contains a NUL byte")
	}

	abs, err := filepath.Abs(ExpandPath(trimmed))
	if err != nil {
		return "", fmt.Errorf("cannot resolve directory: %w", err)
	}
	abs = filepath.Clean(abs)

	if IsReservedDirectory(abs) {
		return "", fmt.Errorf("refusing to use system directory %s", abs)
	}
	return abs, nil
}

// ValidateRelativePath checks a "/"-separated path taken from a remote tree before
// it is joined onto a local directory.
//
// The function rejects:
//   - empty paths
//   - absolute paths (including Windows drive letters)
//   - any ".." segment
//   - NUL bytes
func ValidateRelativePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}

	slashed := strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(p) || hasDriveLetter(slashed) {
		return fmt.Errorf("absolute path not allowed: %s", p)
	}
	for _, seg := range strings.Split(slashed, "/") {
		if seg == ".." {
			return fmt.Errorf("path traversal not allowed: %s", p)
		}
	}
	if path.Clean(slashed) == "." {
		return fmt.Errorf("path does not name a file: %s", p)
	}
	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// IsReservedDirectory reports whether path is a system or credential directory
// that sync operations must never write into.
//
// The check resolves symlinks, treats the filesystem root as reserved, and allows
// temp directories nested below reserved prefixes (macOS /var/folders).
func IsReservedDirectory(p string) bool {
	absPath, err := filepath.Abs(p)
	if err != nil {
		return true
	}
	absPath = filepath.Clean(absPath)
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	if absPath == "/" || absPath == "\\" || (len(absPath) == 3 && absPath[1:] == ":\\") {
		return true
	}

	lower := strings.ToLower(absPath)
	for _, reserved := range reservedDirectories() {
		reservedAbs := filepath.Clean(reserved)
		if resolved, err := filepath.EvalSymlinks(reservedAbs); err == nil {
			reservedAbs = resolved
		}
		reservedLower := strings.ToLower(reservedAbs)

		if lower == reservedLower {
			return true
		}
		if strings.HasPrefix(lower, reservedLower+string(os.PathSeparator)) {
			if isTempDirectory(absPath) {
				continue
			}
			return true
		}
	}
	return false
}

func reservedDirectories() []string {
	var dirs []string

	switch runtime.GOOS {
	case "windows":
		dirs = []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
			"C:\\ProgramData\\Microsoft",
		}
	case "darwin":
		dirs = []string{
			"/System",
			"/usr/bin",
			"/usr/sbin",
			"/bin",
			"/sbin",
			"/etc",
			"/var/log",
			"/var/db",
			"/var/root",
			"/Library/System",
			"/private/etc",
		}
	default:
		dirs = []string{
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/etc",
			"/boot",
			"/dev",
			"/proc",
			"/sys",
			"/var/log",
			"/var/lib",
			"/var/cache",
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".ssh"),
			filepath.Join(home, ".gnupg"),
		)
	}
	return dirs
}

func isTempDirectory(p string) bool {
	if runtime.GOOS == "darwin" && strings.Contains(p, "/var/folders/") {
		return true
	}
	tmp := filepath.Clean(os.TempDir())
	return p == tmp || strings.HasPrefix(p, tmp+string(os.PathSeparator))
}
