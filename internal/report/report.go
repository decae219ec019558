// Package report renders operation results as the plain text returned to MCP
// clients and printed by the CLI.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MaxListed is how many paths a summary lists before collapsing the rest into
// "... and N more".
const MaxListed = 10

const rule = "--------------------------------------------------"

// writeList appends up to MaxListed items of paths, indented, then a count of
// the remainder.
func writeList(b *strings.Builder, paths []string, noun string) {
	for i, p := range paths {
		if i == MaxListed {
			fmt.Fprintf(b, "  ... and %d more %s\n", len(paths)-MaxListed, noun)
			break
		}
		fmt.Fprintf(b, "  - %s\n", p)
	}
}

func byteCount(n int64) string {
	return humanize.Comma(n) + " bytes"
}

func date(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func finish(b *strings.Builder) string {
	return strings.TrimRight(b.String(), "\n")
}
