package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shelfvoice/portal/internal/cli"
	"github.com/shelfvoice/portal/internal/infrastructure/config"
	"github.com/shelfvoice/portal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(func(cmd *cobra.Command) (*cli.App, error) {
		cfg, err := config.LoadClient(cmd.Context())
		if err != nil {
			return nil, err
		}
		log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty(), Output: os.Stderr, Service: "portalctl"})
		return cli.BuildApp(cmd.Context(), cfg, log)
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			os.Exit(130)
		}
		os.Exit(1)
	}
}
