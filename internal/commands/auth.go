package commands

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmynk/worklog/internal/api"
)

// readPassword reads a password without echo when stdin is a terminal.
func (a *app) readPassword(cmd *cobra.Command, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return a.prompt(cmd, label)
}

func signedIn(cmd *cobra.Command, user *api.User) {
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.DisplayName, user.Email)
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, password, name, code string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with an approval code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if code == "" {
				if code, err = a.prompt(cmd, "Approval code: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}

			user, err := a.client.Register(cmd.Context(), email, password, name, code)
			if err != nil {
				return err
			}
			signedIn(cmd, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: the part of the email before @)")
	cmd.Flags().StringVar(&code, "code", "", "approval code")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password, provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password or an OAuth provider",
		Long: `Sign in with email and password, or with --oauth github|google.

The OAuth flow prints the provider's consent URL. Open it, approve, and
paste the code from the redirect back here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if provider != "" {
				state := uuid.NewString()
				url, err := a.client.OAuthURL(ctx, provider, state)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to sign in:\n\n  %s\n\n", url)
				code, err := a.prompt(cmd, "Code: ")
				if err != nil {
					return err
				}
				user, err := a.client.OAuthLogin(ctx, provider, code)
				if err != nil {
					return err
				}
				signedIn(cmd, user)
				return nil
			}

			var err error
			if email == "" {
				if email, err = a.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}
			user, err := a.client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			signedIn(cmd, user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&provider, "oauth", "", "sign in with an OAuth provider (github, google)")
	cmd.MarkFlagsMutuallyExclusive("oauth", "email")
	cmd.MarkFlagsMutuallyExclusive("oauth", "password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> via %s\n", user.DisplayName, user.Email, user.Provider)
			return nil
		},
	}
}
