package report

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"flashgh/internal/remote"
	"flashgh/internal/syncer"
	"flashgh/internal/tree"

	"github.com/adrg/frontmatter"
	"github.com/dustin/go-humanize"
)

// Browse renders repository information followed by the file or directory
// that was browsed.
func Browse(res syncer.BrowseResult) string {
	var b strings.Builder
	writeRepoInfo(&b, res.Repo, res.Ref)
	b.WriteString("\n")
	if res.Contents.Dir {
		writeDirectory(&b, res.Path, res.Contents.Items)
	} else {
		writeFile(&b, res.Contents, res.IncludeContent)
	}
	return finish(&b)
}

func writeRepoInfo(b *strings.Builder, r remote.RepoInfo, ref string) {
	b.WriteString("REPOSITORY INFORMATION\n")
	b.WriteString(strings.Repeat("=", len(rule)) + "\n")
	fmt.Fprintf(b, "Repository: %s\n", r.FullName)
	fmt.Fprintf(b, "URL: %s\n", r.HTMLURL)
	fmt.Fprintf(b, "Description: %s\n", orDefault(r.Description, "(No description)"))
	fmt.Fprintf(b, "Default Branch: %s\n", r.DefaultBranch)
	fmt.Fprintf(b, "Current Branch: %s\n", ref)
	fmt.Fprintf(b, "Primary Language: %s\n", orDefault(r.Language, "Not specified"))
	fmt.Fprintf(b, "Stars: %s | Forks: %s | Issues: %s\n",
		humanize.Comma(int64(r.Stars)), humanize.Comma(int64(r.Forks)), humanize.Comma(int64(r.OpenIssues)))
	fmt.Fprintf(b, "Created: %s | Updated: %s | Last Push: %s\n", date(r.CreatedAt), date(r.UpdatedAt), date(r.PushedAt))
	if r.License != "" {
		fmt.Fprintf(b, "License: %s\n", r.License)
	}
	fmt.Fprintf(b, "Visibility: %s\n", capitalize(r.Visibility))
	if r.Archived {
		b.WriteString("Archived: yes\n")
	}
	fmt.Fprintf(b, "Clone URL (HTTPS): %s\n", r.CloneURL)
	fmt.Fprintf(b, "Clone URL (SSH): %s\n", r.SSHURL)
}

func writeDirectory(b *strings.Builder, p string, items []remote.Item) {
	fmt.Fprintf(b, "DIRECTORY CONTENTS: '%s'\n", orDefault(p, "root"))
	b.WriteString(rule + "\n")

	var dirs, files []remote.Item
	for _, it := range items {
		if it.IsDir() {
			dirs = append(dirs, it)
		} else {
			files = append(files, it)
		}
	}
	byName := func(s []remote.Item) {
		sort.Slice(s, func(i, j int) bool { return strings.ToLower(s[i].Path) < strings.ToLower(s[j].Path) })
	}
	byName(dirs)
	byName(files)

	if len(dirs) == 0 {
		b.WriteString("(No subdirectories)\n")
	}
	for _, d := range dirs {
		fmt.Fprintf(b, "[dir]  %s/\n", path.Base(d.Path))
	}
	b.WriteString("\n")

	if len(files) == 0 {
		b.WriteString("(No files)\n")
	} else {
		b.WriteString("FILES:\n")
	}
	for _, f := range files {
		suffix := ""
		if f.Type == "symlink" {
			suffix = " -> symlink"
		}
		fmt.Fprintf(b, "[file] %s (%s)%s\n", path.Base(f.Path), byteCount(f.Size), suffix)
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("To navigate to a subdirectory, specify its path.\n")
	b.WriteString("To view a file, specify its path and set include_content=true.\n")
}

func writeFile(b *strings.Builder, c remote.Contents, includeContent bool) {
	f := c.File
	b.WriteString("FILE INFORMATION\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(b, "File: %s\n", f.Path)
	fmt.Fprintf(b, "Size: %s\n", byteCount(f.Size))
	fmt.Fprintf(b, "SHA: %s\n", f.SHA)
	if f.Target != "" {
		fmt.Fprintf(b, "Symlink to: %s\n", f.Target)
	}
	if f.DownloadURL != "" {
		fmt.Fprintf(b, "Download URL: %s\n", f.DownloadURL)
	}
	if keys := FrontMatterKeys(f.Path, c.Content); len(keys) > 0 {
		fmt.Fprintf(b, "Front Matter: %s\n", strings.Join(keys, ", "))
	}
	b.WriteString(rule + "\n")

	if !includeContent {
		b.WriteString("\nTo view the file content, use include_content=true\n")
		return
	}
	b.WriteString("\nFILE CONTENT\n")
	b.WriteString(rule + "\n")
	if IsBinary(c.Content) {
		b.WriteString("(Binary file - content not displayed)\n")
		return
	}
	b.Write(c.Content)
	b.WriteString("\n")
}

// IsBinary reports whether content should not be shown as text.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content)
}

// FrontMatterKeys returns the sorted top-level keys of a markdown file's YAML
// front matter, or nil when the file is not markdown or has none.
func FrontMatterKeys(p string, content []byte) []string {
	ext := strings.ToLower(path.Ext(p))
	if len(content) == 0 || (ext != ".md" && ext != ".markdown" && ext != ".mdc") {
		return nil
	}
	var matter map[string]any
	if _, err := frontmatter.Parse(bytes.NewReader(content), &matter); err != nil {
		return nil
	}
	keys := make([]string, 0, len(matter))
	for k := range matter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tree renders a recursive listing, one path per line.
func Tree(entries []tree.Entry) string {
	if len(entries) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&b, "%s/\n", e.Path)
			continue
		}
		fmt.Fprintf(&b, "%s  %s\n", e.Path, humanize.IBytes(uint64(e.Size)))
	}
	return finish(&b)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
