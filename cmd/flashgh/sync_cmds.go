package main

import (
	"fmt"

	"flashgh/internal/remote"
	"flashgh/internal/report"
	"flashgh/internal/syncer"

	"github.com/spf13/cobra"
)

// syncFlags are shared by pull, push and compare.
type syncFlags struct {
	branch  string
	include []string
	exclude []string
}

func (f *syncFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.branch, "branch", "b", "", "Branch to use (default branch when empty)")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "Only consider paths matching these globs")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Skip paths matching these globs")
}

func (f *syncFlags) options() syncer.SyncOptions {
	return syncer.SyncOptions{Include: f.include, Exclude: f.exclude}
}

// reportedError marks a failure whose report was already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// renderFailure prints the same failure text the MCP tools return, then
// hands the error back so the exit status reflects it.
func renderFailure(cmd *cobra.Command, op string, err error) error {
	fmt.Fprint(cmd.ErrOrStderr(), report.Error(op, err))
	return reportedError{err}
}

func newPullCmd() *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "pull <owner/repo> <local-dir>",
		Short: "Download a repository's files into a local directory",
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
			res, err := a.engine.Pull(cmd.Context(), repo, remote.BranchFromArg(flags.branch), args[1], flags.options())
			if err != nil {
				return renderFailure(cmd, "pull", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Pull(res))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPushCmd() *cobra.Command {
	var (
		flags   syncFlags
		message string
		mirror  bool
	)

	cmd := &cobra.Command{
		Use:   "push <owner/repo> <local-dir>",
		Short: "Upload new and changed local files, creating the repository if needed",
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
			opts := flags.options()
			opts.Mirror = mirror

			res, err := a.engine.Push(cmd.Context(), repo, remote.BranchFromArg(flags.branch), args[1], message, opts)
			if err != nil {
				return renderFailure(cmd, "push", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Push(res))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message for every write")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Also delete remote files missing locally")
	cobra.CheckErr(cmd.MarkFlagRequired("message"))
	return cmd
}

func newCompareCmd() *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "compare <owner/repo> <local-dir>",
		Short: "Compare a local directory with a repository",
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
			res, err := a.engine.Compare(cmd.Context(), repo, remote.BranchFromArg(flags.branch), args[1], flags.options())
			if err != nil {
				return renderFailure(cmd, "compare", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Compare(res))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
