package fileops

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{name: "simple file", path: "README.md"},
		{name: "nested file", path: "src/pkg/main.go"},
		{name: "dotfile", path: ".github/workflows/ci.yml"},
		{name: "dots inside name", path: "notes..txt"},
		{name: "empty", path: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "whitespace", path: "  ", wantErr: true, errMsg: "cannot be empty"},
		{name: "absolute", path: "/etc/passwd", wantErr: true, errMsg: "absolute path"},
		{name: "backslash absolute", path: "\\windows\\system32", wantErr: true, errMsg: "absolute path"},
		{name: "drive letter", path: "C:/Windows/win.ini", wantErr: true, errMsg: "absolute path"},
		{name: "parent escape", path: "../outside.txt", wantErr: true, errMsg: "traversal"},
		{name: "nested escape", path: "a/../../b", wantErr: true, errMsg: "traversal"},
		{name: "backslash escape", path: "a\\..\\..\\b", wantErr: true, errMsg: "traversal"},
		{name: "nul byte", path: "a\x00b", wantErr: true, errMsg: "NUL"},
		{name: "current dir", path: ".", wantErr: true, errMsg: "does not name a file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ValidateRelativePath(%q) expected error", tt.path)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateRelativePath(%q) error = %v, want containing %q", tt.path, err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateRelativePath(%q) unexpected error: %v", tt.path, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := map[string]string{
		"~/src":     filepath.Join(home, "src"),
		"~":         home,
		"/abs/path": "/abs/path",
		"rel/path":  "rel/path",
		"~user/x":   "~user/x",
	}
	for in, want := range tests {
		if got := ExpandPath(in); got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveLocalDir(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveLocalDir(dir + string(os.PathSeparator) + ".")
	if err != nil {
		t.Fatalf("ResolveLocalDir() unexpected error: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Errorf("ResolveLocalDir() = %q, want %q", got, filepath.Clean(dir))
	}

	if _, err := ResolveLocalDir("   "); err == nil {
		t.Error("ResolveLocalDir() expected error for empty input")
	}
}

func TestResolveLocalDirRejectsSystemDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	for _, dir := range []string{"/", "/etc", "/etc/ssh", "/proc/self"} {
		if _, err := ResolveLocalDir(dir); err == nil {
			t.Errorf("ResolveLocalDir(%q) expected error", dir)
		}
	}
}

func TestIsReservedDirectoryAllowsTemp(t *testing.T) {
	if IsReservedDirectory(t.TempDir()) {
		t.Error("temp directory should not be reserved")
	}
}
