package local

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"flashgh/internal/tree"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	"github.com/go-git/go-git/v6/plumbing/format/gitignore"
)

// DefaultIgnores are always excluded from sync, on both sides.
var DefaultIgnores = []string{
	".git/",
	".env",
	".venv/",
	"__pycache__/",
	"*.pyc",
	"*.pyo",
}

const gitignoreFile = ".gitignore"

// FilterOptions selects which paths take part in a sync.
type FilterOptions struct {
	// UseGitignore reads .gitignore at the root of the local tree.
	UseGitignore bool
	// Ignore holds extra gitignore-syntax patterns.
	Ignore []string
	// Include, when non-empty, keeps only files matching at least one glob.
	Include []string
	// Exclude drops files matching any glob.
	Exclude []string
}

// Filter decides which relative paths are synced. A nil *Filter allows
// everything.
//
// Include and exclude globs use doublestar syntax. A glob without a "/" is
// also tried against the file's base name, so "*.md" matches "docs/a.md".
type Filter struct {
	matcher gitignore.Matcher
	include []string
	exclude []string
}

// NewFilter builds a filter from the default ignores plus opts. When
// opts.UseGitignore is set the root .gitignore of fs is read; a missing file is
// not an error. fs may be nil when there is no local tree yet.
func NewFilter(fs billy.Filesystem, opts FilterOptions) (*Filter, error) {
	var patterns []gitignore.Pattern
	for _, p := range DefaultIgnores {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	if opts.UseGitignore && fs != nil {
		ps, err := readGitignore(fs)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ps...)
	}
	patterns = append(patterns, parsePatterns(opts.Ignore)...)

	for _, g := range append(append([]string(nil), opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid glob pattern %q", g)
		}
	}

	return &Filter{
		matcher: gitignore.NewMatcher(patterns),
		include: cleanGlobs(opts.Include),
		exclude: cleanGlobs(opts.Exclude),
	}, nil
}

func readGitignore(fs billy.Filesystem) ([]gitignore.Pattern, error) {
	data, err := util.ReadFile(fs, gitignoreFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", gitignoreFile, err)
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", gitignoreFile, err)
	}
	return parsePatterns(lines), nil
}

func parsePatterns(lines []string) []gitignore.Pattern {
	var ps []gitignore.Pattern
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return ps
}

func cleanGlobs(globs []string) []string {
	var out []string
	for _, g := range globs {
		g = strings.TrimPrefix(strings.TrimSpace(g), "./")
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Allows reports whether p takes part in the sync. Directories are checked
// against ignore patterns only, so walks can prune them without losing included
// files below.
func (f *Filter) Allows(p string, isDir bool) bool {
	if f == nil {
		return true
	}
	p = tree.CleanPath(p)
	if p == "" {
		return true
	}
	if f.matcher.Match(strings.Split(p, "/"), isDir) {
		return false
	}
	if isDir {
		return true
	}
	if len(f.include) > 0 && !matchAny(f.include, p) {
		return false
	}
	return !matchAny(f.exclude, p)
}

// Apply returns the entries of s that the filter allows.
func (f *Filter) Apply(s tree.Snapshot) tree.Snapshot {
	if f == nil {
		return s
	}
	return s.Filter(func(e tree.Entry) bool {
		return f.Allows(e.Path, e.IsDir())
	})
}

func matchAny(globs []string, p string) bool {
	base := path.Base(p)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
		if !strings.Contains(g, "/") {
			if ok, _ := doublestar.Match(g, base); ok {
				return true
			}
		}
	}
	return false
}
