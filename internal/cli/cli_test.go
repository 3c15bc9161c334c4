package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfvoice/portal/internal/api"
	"github.com/shelfvoice/portal/internal/core/service"
	"github.com/shelfvoice/portal/internal/infrastructure/backend"
	"github.com/shelfvoice/portal/internal/infrastructure/config"
	"github.com/shelfvoice/portal/internal/infrastructure/navigation"
	"github.com/shelfvoice/portal/internal/infrastructure/storage"
)

// TestRootSubcommands tests that all subcommands are registered
func TestRootSubcommands(t *testing.T) {
	subcommands := map[string]bool{
		"login": false, "logout": false, "whoami": false, "refresh": false,
		"open": false, "can": false, "nav": false,
	}

	for _, cmd := range NewRootCmd(nil).Commands() {
		if _, exists := subcommands[cmd.Name()]; exists {
			subcommands[cmd.Name()] = true
		}
	}

	for name, found := range subcommands {
		if !found {
			t.Errorf("subcommand '%s' not found in root command", name)
		}
	}
}

// TestLoginFlags tests that login has correct flags
func TestLoginFlags(t *testing.T) {
	login, _, err := NewRootCmd(nil).Find([]string{"login"})
	require.NoError(t, err)

	for _, name := range []string{"username", "password"} {
		if login.Flags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found on login command", name)
		}
	}
}

// ----------------------------------------------------------------------------
// End to end against a fake login service and the real edge router
// ----------------------------------------------------------------------------

type harness struct {
	app     *App
	logins  atomic.Int32
	apiURL  string
	edgeURL string
}

func newHarness(t *testing.T, loginBody string) *harness {
	t.Helper()
	h := &harness{}

	loginAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.logins.Add(1)
		if r.URL.Path != backend.LoginPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(loginBody))
	}))
	t.Cleanup(loginAPI.Close)

	nav, err := navigation.Default()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	edge := httptest.NewServer(api.NewEdgeRouter(api.EdgeDeps{
		ProtectedPrefixes: []string{"/dashboard", "/auditor-dashboard"},
		LoginPath:         "/login",
		Navigation:        nav,
		Logger:            zerolog.Nop(),
		Observability:     api.Observability{Registerer: reg, Gatherer: reg},
	}))
	t.Cleanup(edge.Close)

	jar, err := storage.NewCookieJar(edge.URL, "", zerolog.Nop())
	require.NoError(t, err)
	store := service.NewSessionStore(storage.NewMemoryStore(), jar, zerolog.Nop())
	cfg := &config.ClientConfig{HTTPTimeout: 5 * time.Second}

	h.apiURL, h.edgeURL = loginAPI.URL, edge.URL
	h.app = &App{
		Auth:       service.NewAuthController(backend.NewLoginClient(loginAPI.URL, nil, time.Second), store, zerolog.Nop()),
		Edge:       NewEdgeClient(jar, cfg),
		EdgeURL:    edge.URL,
		Navigation: nav,
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(func(*cobra.Command) (*App, error) { return h.app, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	h.app.Out = nil
	err := root.Execute()
	return out.String(), err
}

func auditorBody() string {
	return fmt.Sprintf(`{"token":"abc","role":"auditor","permissions":["view_reports"],"expiresAt":%d}`,
		time.Now().Add(24*time.Hour).UnixMilli())
}

func TestCLI_AuditorJourney(t *testing.T) {
	h := newHarness(t, auditorBody())

	out, err := h.run(t, "login", "-u", "audrey", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "(auditor)")
	assert.Contains(t, out, "Landing page: /auditor-dashboard")

	out, err = h.run(t, "open")
	require.NoError(t, err)
	assert.Equal(t, "302 -> /auditor-dashboard\n", out)

	out, err = h.run(t, "open", "/auditor-dashboard")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "200\n"), out)

	out, err = h.run(t, "can", "view_reports")
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out)

	out, err = h.run(t, "can", "manage_users")
	require.NoError(t, err)
	assert.Equal(t, "no\n", out)

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Role:        auditor")

	out, err = h.run(t, "nav")
	require.NoError(t, err)
	assert.Contains(t, out, "Dashboard  /dashboard")
	assert.NotContains(t, out, "Users")

	_, err = h.run(t, "logout")
	require.NoError(t, err)

	out, err = h.run(t, "open", "/auditor-dashboard")
	require.NoError(t, err)
	assert.Equal(t, "307 -> /login?redirect=%2Fauditor-dashboard\n", out)

	_, err = h.run(t, "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCLI_LoginRejected(t *testing.T) {
	h := newHarness(t, `{"message":"ignored on 200 without token"}`)

	_, err := h.run(t, "login", "-u", "x", "-p", "pw")
	require.Error(t, err)
	assert.Equal(t, "Login failed", err.Error())
	assert.Equal(t, int32(1), h.logins.Load())
}

func TestCLI_LoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t, auditorBody())
	root := NewRootCmd(func(*cobra.Command) (*App, error) { return h.app, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("secret\n"))
	root.SetArgs([]string{"login", "-u", "audrey"})
	t.Setenv("PORTAL_PASSWORD", "")

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Logged in as")
}

func TestCLI_LoginRequiresUsername(t *testing.T) {
	h := newHarness(t, auditorBody())
	_, err := h.run(t, "login")
	require.Error(t, err)
	assert.Equal(t, int32(0), h.logins.Load())
}

func TestCLI_LoginRecoversFromCorruptState(t *testing.T) {
	h := newHarness(t, auditorBody())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.json"), []byte("{not json"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.json"), []byte("{not json"), 0o600))

	app, err := BuildApp(context.Background(), &config.ClientConfig{
		APIBaseURL:  h.apiURL,
		EdgeBaseURL: h.edgeURL,
		StateDir:    dir,
		LocalStore:  StoreFile,
		HTTPTimeout: 5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	h.app = app

	_, err = h.run(t, "whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := h.run(t, "login", "-u", "audrey", "-p", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Landing page: /auditor-dashboard")

	out, err = h.run(t, "open")
	require.NoError(t, err)
	assert.Equal(t, "302 -> /auditor-dashboard\n", out)
}

func TestReadPassword_NonTerminalInput(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	_, err = w.WriteString("s3cret\r\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	cmd := &cobra.Command{}
	cmd.SetIn(r)
	pw, err := readPassword(cmd)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	cmd.SetIn(strings.NewReader(""))
	_, err = readPassword(cmd)
	assert.EqualError(t, err, "password required")
}
