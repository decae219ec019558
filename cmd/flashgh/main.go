// Package main is the entry point for the flashgh CLI.
//
// flashgh runs as an MCP server over stdio ("flashgh serve") and also exposes
// every tool as a direct subcommand for scripting and manual use. Startup
// loads the config file, resolves the GitHub token (environment, config file,
// OS keyring) and builds one sync engine shared by the chosen command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flashgh/internal/apperr"
	"flashgh/internal/logging"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		}
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "flashgh",
		Short:         "Search, browse and sync GitHub repositories, as an MCP server or from the shell",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				os.Setenv("DEBUG", "1")
			}
			logging.Debug("Starting command", "command", cmd.CommandPath())
		},
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Write debug logs to the debug log file")

	root.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newCatCmd(),
		newPullCmd(),
		newPushCmd(),
		newCompareCmd(),
		newAuthCmd(),
		newConfigCmd(),
	)
	return root
}

// exitCode maps failures to distinct exit statuses for scripts.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, apperr.PartialFailure):
		return 3
	case errors.Is(err, apperr.AuthError):
		return 4
	default:
		return 1
	}
}
