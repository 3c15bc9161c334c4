package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Common settings shared by every binary.
type Common struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
}

// Pretty reports whether logs should be rendered for a terminal.
func (c Common) Pretty() bool {
	return c.Env == "development"
}

// EdgeConfig configures the edge server that guards the dashboard.
type EdgeConfig struct {
	Common

	Port              string        `env:"EDGE_PORT,              default=3000"`
	ProtectedPrefixes []string      `env:"EDGE_PROTECTED_PREFIXES, default=/dashboard,/auditor-dashboard"`
	LoginPath         string        `env:"EDGE_LOGIN_PATH,        default=/login"`
	CookieLifetime    time.Duration `env:"EDGE_COOKIE_LIFETIME,   default=24h"`
	NavigationFile    string        `env:"EDGE_NAVIGATION_FILE"`
}

// ClientConfig configures portalctl.
type ClientConfig struct {
	Common

	APIBaseURL     string        `env:"PORTAL_API_URL,         default=http://localhost:8081"`
	EdgeBaseURL    string        `env:"PORTAL_EDGE_URL,        default=http://localhost:3000"`
	StateDir       string        `env:"PORTAL_STATE_DIR"`
	LocalStore     string        `env:"PORTAL_LOCAL_STORE,     default=file"`
	StrictContract bool          `env:"PORTAL_STRICT_CONTRACT, default=false"`
	HTTPTimeout    time.Duration `env:"PORTAL_HTTP_TIMEOUT,    default=10s"`
	SessionTTL     time.Duration `env:"PORTAL_SESSION_TTL,     default=24h"`
	CookieLifetime time.Duration `env:"PORTAL_COOKIE_LIFETIME, default=24h"`

	Redis RedisConfig
}

// ResolvedStateDir returns StateDir, falling back to ~/.portal.
func (c ClientConfig) ResolvedStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve state dir: %w", err)
	}
	return filepath.Join(home, ".portal"), nil
}

// AuthStubConfig configures the reference login collaborator.
type AuthStubConfig struct {
	Common

	Port        string        `env:"AUTH_PORT,         default=8081"`
	JWTSecret   string        `env:"JWT_SECRET,        required"`
	TokenTTL    time.Duration `env:"AUTH_TOKEN_TTL,    default=24h"`
	MaxAttempts int           `env:"AUTH_MAX_ATTEMPTS, default=5"`
	LockoutTTL  time.Duration `env:"AUTH_LOCKOUT_TTL,  default=15m"`

	SeedUsername string `env:"AUTH_SEED_USERNAME"`
	SeedPassword string `env:"AUTH_SEED_PASSWORD"`
	SeedRole     string `env:"AUTH_SEED_ROLE, default=admin"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=shelfvoice_portal"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,         default=localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,           default=0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
}

// LoadEdge reads the edge configuration from the environment.
func LoadEdge(ctx context.Context) (*EdgeConfig, error) {
	var cfg EdgeConfig
	return &cfg, process(ctx, &cfg, nil)
}

// LoadClient reads the portalctl configuration from the environment.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	var cfg ClientConfig
	return &cfg, process(ctx, &cfg, nil)
}

// LoadAuthStub reads the login collaborator configuration from the environment.
func LoadAuthStub(ctx context.Context) (*AuthStubConfig, error) {
	var cfg AuthStubConfig
	return &cfg, process(ctx, &cfg, nil)
}

// process runs go-envconfig against l, or the OS environment when l is nil.
func process(ctx context.Context, target any, l envconfig.Lookuper) error {
	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: target, Lookuper: l}); err != nil {
		return fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return nil
}
