package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shelfvoice/portal/internal/api"
	"github.com/shelfvoice/portal/internal/infrastructure/config"
	"github.com/shelfvoice/portal/internal/infrastructure/navigation"
	"github.com/shelfvoice/portal/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadEdge(ctx)
	if err != nil {
		panic(err)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty(), Service: "edge"})

	nav, err := navigation.Load(cfg.NavigationFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load navigation")
	}

	e := api.NewEdgeRouter(api.EdgeDeps{
		ProtectedPrefixes: cfg.ProtectedPrefixes,
		LoginPath:         cfg.LoginPath,
		Navigation:        nav,
		Logger:            log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Strs("protected", cfg.ProtectedPrefixes).Msg("edge listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("edge server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
