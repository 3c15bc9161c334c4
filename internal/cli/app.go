// Package cli implements portalctl, the command-line portal client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
	"github.com/shelfvoice/portal/internal/core/service"
	"github.com/shelfvoice/portal/internal/infrastructure/backend"
	"github.com/shelfvoice/portal/internal/infrastructure/config"
	redisdb "github.com/shelfvoice/portal/internal/infrastructure/db/redis"
	"github.com/shelfvoice/portal/internal/infrastructure/navigation"
	"github.com/shelfvoice/portal/internal/infrastructure/storage"
)

// Local store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// App is everything a portalctl command needs. The AuthController is the one
// session context of the process.
type App struct {
	Auth       *service.AuthController
	Edge       *http.Client
	EdgeURL    string
	Navigation []domain.NavItem
	Out        io.Writer

	closers []func() error
}

// Close releases connections opened by BuildApp.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewEdgeClient returns an HTTP client that presents jar's cookies to the edge
// and reports redirects instead of following them.
func NewEdgeClient(jar http.CookieJar, cfg *config.ClientConfig) *http.Client {
	return &http.Client{
		Jar:     jar,
		Timeout: cfg.HTTPTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// BuildApp wires the client from configuration.
func BuildApp(ctx context.Context, cfg *config.ClientConfig, log zerolog.Logger) (*App, error) {
	dir, err := cfg.ResolvedStateDir()
	if err != nil {
		return nil, err
	}

	app := &App{EdgeURL: strings.TrimRight(cfg.EdgeBaseURL, "/")}

	local, err := openLocalStore(ctx, cfg, dir, app, log)
	if err != nil {
		return nil, err
	}
	jar, err := storage.NewCookieJar(cfg.EdgeBaseURL, filepath.Join(dir, "cookies.json"), log)
	if err != nil {
		return nil, err
	}

	store := service.NewSessionStore(local, jar, log, service.WithCookieLifetime(cfg.CookieLifetime))
	client := backend.NewLoginClient(cfg.APIBaseURL, nil, cfg.HTTPTimeout)
	app.Auth = service.NewAuthController(client, store, log,
		service.WithStrictContract(cfg.StrictContract),
		service.WithSessionTTL(cfg.SessionTTL),
	)
	app.Edge = NewEdgeClient(jar, cfg)

	app.Navigation, err = navigation.Default()
	if err != nil {
		return nil, err
	}
	return app, nil
}

func openLocalStore(ctx context.Context, cfg *config.ClientConfig, dir string, app *App, log zerolog.Logger) (ports.LocalStore, error) {
	switch cfg.LocalStore {
	case StoreFile, "":
		return storage.NewFileStore(filepath.Join(dir, "local.json"), log), nil
	case StoreMemory:
		return storage.NewMemoryStore(), nil
	case StoreRedis:
		profile, err := profileID(dir)
		if err != nil {
			return nil, err
		}
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, rdb.Close)
		return redisdb.NewLocalStore(rdb, profile), nil
	default:
		return nil, fmt.Errorf("unknown local store %q (want %s, %s or %s)", cfg.LocalStore, StoreFile, StoreRedis, StoreMemory)
	}
}

// profileID returns the id that namespaces this installation's keys in a
// shared store, creating it on first use.
func profileID(dir string) (string, error) {
	path := filepath.Join(dir, "profile")
	data, err := os.ReadFile(path)
	if err == nil {
		if id, perr := uuid.ParseBytes([]byte(strings.TrimSpace(string(data)))); perr == nil {
			return id.String(), nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read profile: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write profile: %w", err)
	}
	return id, nil
}
