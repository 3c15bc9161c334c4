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
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/shelfvoice/portal/internal/api"
	"github.com/shelfvoice/portal/internal/api/handler"
	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/service"
	"github.com/shelfvoice/portal/internal/infrastructure/config"
	mongodb "github.com/shelfvoice/portal/internal/infrastructure/db/mongo"
	redisdb "github.com/shelfvoice/portal/internal/infrastructure/db/redis"
	"github.com/shelfvoice/portal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAuthStub(ctx)
	if err != nil {
		panic(err)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Pretty(), Service: "authstub"})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}
	limiter := redisdb.NewAttemptLimiter(rdb, cfg.MaxAttempts, cfg.LockoutTTL)
	authService := service.NewAuthService(users, limiter, cfg.JWTSecret, cfg.TokenTTL, log)

	seedUser(ctx, authService, cfg, log)

	e := api.NewAuthStubRouter(api.AuthStubDeps{
		AuthService: authService,
		JWTSecret:   cfg.JWTSecret,
		Checks: map[string]handler.CheckFunc{
			"mongodb": func(ctx context.Context) error {
				return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
			},
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		Logger: log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("login service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("login service failed")
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

// seedUser creates the bootstrap account when one is configured and absent.
func seedUser(ctx context.Context, svc *service.AuthService, cfg *config.AuthStubConfig, log zerolog.Logger) {
	if cfg.SeedUsername == "" || cfg.SeedPassword == "" {
		return
	}
	_, err := svc.Register(ctx, cfg.SeedUsername, cfg.SeedPassword, cfg.SeedUsername, cfg.SeedUsername, cfg.SeedRole, "")
	switch {
	case err == nil:
		log.Info().Str("username", cfg.SeedUsername).Str("role", cfg.SeedRole).Msg("seeded user")
	case errors.Is(err, domain.ErrUserExists):
		log.Debug().Str("username", cfg.SeedUsername).Msg("seed user already exists")
	default:
		log.Fatal().Err(err).Msg("failed to seed user")
	}
}
