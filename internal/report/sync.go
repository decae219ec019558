package report

import (
	"errors"
	"fmt"
	"strings"

	"flashgh/internal/apperr"
	"flashgh/internal/syncer"

	"github.com/dustin/go-humanize"
)

// Compare renders a comparison summary.
func Compare(r syncer.CompareReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison between local directory '%s' and repository '%s' (branch: %s):\n\n",
		r.LocalDir, r.Repo, r.Branch)

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "- Files only in repository: %d\n", len(r.RemoteOnly()))
	fmt.Fprintf(&b, "- Files only in local directory: %d\n", len(r.LocalOnly()))
	fmt.Fprintf(&b, "- Files modified locally: %d\n", len(r.Diff.Modified))
	fmt.Fprintf(&b, "- Files identical: %d\n", r.Diff.UnchangedCount())

	sections := []struct {
		title string
		paths []string
	}{
		{"FILES ONLY IN REPOSITORY:", r.RemoteOnly()},
		{"FILES ONLY IN LOCAL DIRECTORY:", r.LocalOnly()},
		{"FILES MODIFIED LOCALLY:", r.Diff.Modified},
	}
	for _, s := range sections {
		if len(s.paths) == 0 {
			continue
		}
		b.WriteString("\n" + s.title + "\n")
		writeList(&b, s.paths, "files")
	}

	if r.InSync() {
		b.WriteString("\nLocal directory and repository are in sync. All files are identical.\n")
	}
	return finish(&b)
}

// Pull renders a pull summary.
func Pull(r syncer.PullReport) string {
	if len(r.Written) == 0 {
		return "No files were pulled from the repository. Either the repository is empty or all files are being ignored."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Successfully pulled %d files (%s) from repository %s to %s\n",
		len(r.Written), humanize.IBytes(uint64(r.Bytes)), r.Repo, r.LocalDir)
	writeList(&b, r.Written, "files")
	return finish(&b)
}

// Push renders a push summary.
func Push(r syncer.PushReport) string {
	var b strings.Builder
	if r.RepoCreated {
		b.WriteString("Repository created successfully!\n")
		fmt.Fprintf(&b, "Name: %s\n", r.Repo.Name)
		if r.RepoURL != "" {
			fmt.Fprintf(&b, "URL: %s\n", r.RepoURL)
		}
		if r.SeededReadme {
			b.WriteString("Created README.md file.\n")
		}
	} else {
		fmt.Fprintf(&b, "Pushing to existing repository: %s\n", r.Repo)
	}

	if len(r.Created) > 0 {
		fmt.Fprintf(&b, "Added %d new files.\n", len(r.Created))
	}
	if len(r.Updated) > 0 {
		fmt.Fprintf(&b, "Updated %d existing files.\n", len(r.Updated))
	}
	if len(r.Deleted) > 0 {
		fmt.Fprintf(&b, "Deleted %d remote files.\n", len(r.Deleted))
	}
	if len(r.Created)+len(r.Updated)+len(r.Deleted) == 0 {
		b.WriteString("No files were added or updated.\n")
	}
	if r.Unchanged > 0 {
		fmt.Fprintf(&b, "Skipped %d unchanged files.\n", r.Unchanged)
	}

	var processed []string
	for _, p := range r.Created {
		processed = append(processed, "Added: "+p)
	}
	for _, p := range r.Updated {
		processed = append(processed, "Updated: "+p)
	}
	for _, p := range r.Deleted {
		processed = append(processed, "Deleted: "+p)
	}
	if len(processed) > 0 {
		b.WriteString("\nProcessed files:\n")
		writeList(&b, processed, "files")
	}
	return finish(&b)
}

// Error renders a failure naming the operation, the path involved and the
// cause. Partial failures also list the files written before the failure.
func Error(op string, err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error during %s", op)
	if kind := apperr.KindOf(err); kind != "" {
		fmt.Fprintf(&b, " (%s)", kind)
	}
	fmt.Fprintf(&b, ": %s\n", err)

	if errors.Is(err, apperr.PartialFailure) {
		done := apperr.Completed(err)
		if len(done) == 0 {
			b.WriteString("\nNo files were written before the failure.\n")
		} else {
			fmt.Fprintf(&b, "\nFiles written before the failure (not rolled back): %d\n", len(done))
			writeList(&b, done, "files")
		}
	}

	switch {
	case errors.Is(err, apperr.AuthError):
		b.WriteString("\nCheck the GitHub token: set GITHUB_TOKEN or run 'flashgh auth set'.\n")
	case errors.Is(err, apperr.RateLimited):
		b.WriteString("\nGitHub rate limit reached; retry later or authenticate for a higher limit.\n")
	}
	return finish(&b)
}
