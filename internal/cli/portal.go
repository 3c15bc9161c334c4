package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/service"
)

func newOpenCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "open [path]",
		Short: "Request a portal page through the edge",
		Long: `Request a page from the edge with the stored session cookie and print where
the edge sends you. Without a path the root bootstrap page is requested.

Examples:
  portalctl open
  portalctl open /dashboard/users`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(factory, func(cmd *cobra.Command, args []string, app *App) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, app.EdgeURL+path, nil)
			if err != nil {
				return err
			}
			resp, err := app.Edge.Do(req)
			if err != nil {
				return fmt.Errorf("edge request: %w", err)
			}
			defer resp.Body.Close()

			if loc := resp.Header.Get("Location"); loc != "" {
				fmt.Fprintf(app.Out, "%d -> %s\n", resp.StatusCode, loc)
				return nil
			}
			fmt.Fprintf(app.Out, "%d\n", resp.StatusCode)
			_, err = io.Copy(app.Out, io.LimitReader(resp.Body, 1<<20))
			return err
		}),
	}
}

func newCanCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "can <permission>",
		Short: "Check whether the signed-in user holds a permission",
		Long: `Report whether the portal would show elements gated by permission.
This mirrors the UI filter only; the API decides what is actually allowed.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(factory, func(_ *cobra.Command, args []string, app *App) error {
			user := app.Auth.RequireAuth()
			if user == nil {
				return errNotLoggedIn
			}
			answer := "no"
			if service.HasPermission(user, args[0]) {
				answer = "yes"
			}
			fmt.Fprintln(app.Out, answer)
			return nil
		}),
	}
}

func newNavCmd(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the navigation entries visible to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(factory, func(_ *cobra.Command, _ []string, app *App) error {
			user := app.Auth.RequireAuth()
			if user == nil {
				return errNotLoggedIn
			}
			printNav(app.Out, service.FilterNavigation(app.Navigation, user), 0)
			return nil
		}),
	}
}

func printNav(w io.Writer, items []domain.NavItem, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, it := range items {
		if it.Href != "" {
			fmt.Fprintf(w, "%s%s  %s\n", indent, it.Name, it.Href)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, it.Name)
		}
		printNav(w, it.Children, depth+1)
	}
}
