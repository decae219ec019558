package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"flashgh/internal/remote"
	"flashgh/internal/report"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search GitHub repositories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Search.DefaultLimit
			}
			repos, err := a.engine.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Search(repos))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	return cmd
}

func newBrowseCmd() *cobra.Command {
	var (
		branch    string
		content   bool
		render    bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "browse <owner/repo> [path]",
		Short: "Show repository information and list a directory or file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := remote.ParseRepo(args[0])
			if err != nil {
				return err
			}
			var p string
			if len(args) == 2 {
				p = args[1]
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if recursive {
				entries, err := a.engine.Tree(cmd.Context(), repo, p, remote.BranchFromArg(branch))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, report.Tree(entries))
				return nil
			}

			res, err := a.engine.Browse(cmd.Context(), repo, p, remote.BranchFromArg(branch), content || render)
			if err != nil {
				return err
			}
			if render && res.Contents.File.Path != "" && isMarkdown(res.Contents.File.Path) {
				text, err := renderMarkdown(string(res.Contents.Content))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render(res.Repo.FullName+"/"+res.Contents.File.Path))
				fmt.Fprint(out, text)
				return nil
			}
			fmt.Fprintln(out, report.Browse(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to read (default branch when empty)")
	cmd.Flags().BoolVarP(&content, "content", "c", false, "Include file content")
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown files in the terminal")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "List every file below path")
	return cmd
}

func newCatCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "cat <owner/repo> <path>",
		Short: "Print a file from a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := remote.ParseRepo(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			data, err := a.engine.Cat(cmd.Context(), repo, args[1], remote.BranchFromArg(branch))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to read (default branch when empty)")
	return cmd
}

func isMarkdown(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown") || strings.HasSuffix(lower, ".mdc")
}

func renderMarkdown(src string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(50*time.Millisecond)),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(src)
}

// glamourStyle honours GLAMOUR_STYLE and otherwise probes the terminal
// background, falling back to "dark" if the probe does not answer in time.
func glamourStyle(timeout time.Duration) string {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		if termenv.NewOutput(os.Stdout).HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case style := <-ch:
		return style
	case <-time.After(timeout):
		return "dark"
	}
}
