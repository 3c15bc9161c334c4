package cli

import (
	"github.com/spf13/cobra"
)

// AppFactory builds the App lazily so --help works without configuration.
type AppFactory func(cmd *cobra.Command) (*App, error)

// NewRootCmd assembles portalctl.
func NewRootCmd(factory AppFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "ShelfVoice portal client",
		Long: `portalctl signs in to the ShelfVoice API, keeps the session on this machine
and talks to the portal edge with the same session cookie a browser would send.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newLoginCmd(factory),
		newLogoutCmd(factory),
		newWhoamiCmd(factory),
		newRefreshCmd(factory),
		newOpenCmd(factory),
		newCanCmd(factory),
		newNavCmd(factory),
	)
	return root
}

// withApp builds the App for one command run and closes it afterwards.
func withApp(factory AppFactory, run func(cmd *cobra.Command, args []string, app *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := factory(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		if app.Out == nil {
			app.Out = cmd.OutOrStdout()
		}
		return run(cmd, args, app)
	}
}
