package report

import (
	"fmt"
	"strings"

	"flashgh/internal/remote"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

// maxDescription caps repository descriptions in search results.
const maxDescription = 160

// Search renders repository search results.
func Search(repos []remote.RepoInfo) string {
	if len(repos) == 0 {
		return "No repositories found matching your query."
	}

	var b strings.Builder
	for i, r := range repos {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Repository %d:\n", i+1)
		fmt.Fprintf(&b, "  Name: %s\n", r.Name)
		fmt.Fprintf(&b, "  Full Name: %s\n", r.FullName)
		fmt.Fprintf(&b, "  URL: %s\n", r.HTMLURL)
		fmt.Fprintf(&b, "  Description: %s\n", orDefault(truncate.StringWithTail(r.Description, maxDescription, "..."), "(No description)"))
		fmt.Fprintf(&b, "  Stars: %s\n", humanize.Comma(int64(r.Stars)))
		fmt.Fprintf(&b, "  Forks: %s\n", humanize.Comma(int64(r.Forks)))
		fmt.Fprintf(&b, "  Last Updated: %s\n", date(r.UpdatedAt))
	}
	return finish(&b)
}
