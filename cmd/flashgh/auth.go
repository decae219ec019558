package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"flashgh/internal/credentials"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token stored in the OS keyring",
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthStatusCmd(), newAuthDeleteCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "set [token]",
		Short: "Store a GitHub personal access token",
		Long:  "Store a GitHub personal access token in the OS keyring. Without an argument the token is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				t, err := readToken(cmd)
				if err != nil {
					return err
				}
				token = t
			}
			token = strings.TrimSpace(token)

			if err := credentials.ValidateTokenFormat(token); err != nil {
				if !force {
					return fmt.Errorf("%w (use --force to store it anyway)", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Warning: ")+err.Error())
			}

			m := credentials.NewManager()
			if err := m.Store(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Token stored: ")+credentials.Mask(token))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Store tokens that do not look like GitHub PATs")
	return cmd
}

func readToken(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return line, nil
}

func newAuthStatusCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which token would be used and whether the keyring works",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("GitHub authentication"))
			if a.token.Anonymous() {
				fmt.Fprintln(out, warnStyle.Render("  Token: none (anonymous, read-only access)"))
			} else {
				source := string(a.token.Source)
				if a.token.Detail != "" {
					source += " (" + a.token.Detail + ")"
				}
				fmt.Fprintf(out, "  Token:  %s\n", credentials.Mask(a.token.Value))
				fmt.Fprintf(out, "  Source: %s\n", source)
			}

			st := credentials.NewManager().Status()
			switch {
			case !st.Available:
				fmt.Fprintln(out, warnStyle.Render("  Keyring: unavailable: "+st.Error))
			case st.Warning != "":
				fmt.Fprintln(out, warnStyle.Render("  Keyring: "+st.Warning))
			default:
				fmt.Fprintln(out, okStyle.Render("  Keyring: available"))
			}

			if verify && !a.token.Anonymous() {
				login, err := a.client.AuthenticatedLogin(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, okStyle.Render("  Authenticated as: "+login))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the GitHub API")
	return cmd
}

func newAuthDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored token from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials.NewManager().Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("Stored token removed."))
			return nil
		},
	}
}
