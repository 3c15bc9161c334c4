package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shelfvoice/portal/internal/core/service"
)

var errNotLoggedIn = errors.New("not logged in; run 'portalctl login'")

func newLoginCmd(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with a username or email. The password is read from --password,
then $PORTAL_PASSWORD, then a prompt when standard input is a terminal, or
else the first line of standard input.

Examples:
  portalctl login --username alice@example.com
  echo "$PW" | portalctl login -u alice`,
		Args: cobra.NoArgs,
		RunE: withApp(factory, func(cmd *cobra.Command, _ []string, app *App) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				password = os.Getenv("PORTAL_PASSWORD")
			}
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			res := app.Auth.Login(cmd.Context(), username, password)
			if !res.Success {
				return errors.New(res.Error)
			}

			target, _ := service.RedirectTargetFor(res.User.Role, "/")
			fmt.Fprintf(app.Out, "Logged in as %s (%s)\n", displayName(res.User.Name, res.User.Email, res.User.ID), res.User.Role)
			fmt.Fprintf(app.Out, "Landing page: %s\n", target)
			return nil
		}),
	}
	cmd.Flags().StringP("username", "u", "", "username or email")
	cmd.Flags().StringP("password", "p", "", "password (prefer $PORTAL_PASSWORD or stdin)")
	return cmd
}

// readPassword prompts with echo disabled when stdin is a terminal and reads
// one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("password required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(factory, func(_ *cobra.Command, _ []string, app *App) error {
			app.Auth.Logout()
			fmt.Fprintln(app.Out, "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(factory, func(_ *cobra.Command, _ []string, app *App) error {
			user := app.Auth.RequireAuth()
			if user == nil {
				return errNotLoggedIn
			}
			expires, _ := app.Auth.SessionExpiry()
			fmt.Fprintf(app.Out, "ID:          %s\n", user.ID)
			fmt.Fprintf(app.Out, "Name:        %s\n", user.Name)
			fmt.Fprintf(app.Out, "Email:       %s\n", user.Email)
			fmt.Fprintf(app.Out, "Role:        %s\n", user.Role)
			fmt.Fprintf(app.Out, "Permissions: %s\n", strings.Join(user.Permissions, ", "))
			fmt.Fprintf(app.Out, "Expires:     %s\n", expires.Local().Format(time.RFC1123))
			return nil
		}),
	}
}

func newRefreshCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Extend the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(factory, func(_ *cobra.Command, _ []string, app *App) error {
			if !app.Auth.RefreshSession() {
				return errNotLoggedIn
			}
			expires, _ := app.Auth.SessionExpiry()
			fmt.Fprintf(app.Out, "Session extended until %s\n", expires.Local().Format(time.RFC1123))
			return nil
		}),
	}
}

func displayName(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return "unknown user"
}
