package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

const (
	msgNetworkError = "Network error"
	msgLoginFailed  = "Login failed"
)

// DefaultSessionTTL applies when neither the login response nor its token
// carries an expiry.
const DefaultSessionTTL = 24 * time.Hour

// LoginResult is what Login reports to its caller. It is never accompanied by
// a Go error; Error holds a display message when Success is false.
type LoginResult struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

// AuthController is the application's session context. Build one at startup
// and hand it to every consumer; the session it holds is replaced wholesale by
// Login and Logout.
type AuthController struct {
	client   ports.LoginClient
	store    *SessionStore
	validate *validator.Validate
	log      zerolog.Logger

	strict bool
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	current *domain.Session
}

// AuthOption customises an AuthController.
type AuthOption func(*AuthController)

// WithStrictContract fails logins whose response relies on non-canonical
// field names instead of normalising them.
func WithStrictContract(strict bool) AuthOption {
	return func(a *AuthController) { a.strict = strict }
}

// WithSessionTTL sets the fallback session lifetime.
func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(a *AuthController) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithAuthClock overrides time.Now, for tests.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *AuthController) { a.now = now }
}

// NewAuthController restores any stored session and returns the controller.
func NewAuthController(client ports.LoginClient, store *SessionStore, log zerolog.Logger, opts ...AuthOption) *AuthController {
	a := &AuthController{
		client:   client,
		store:    store,
		validate: validator.New(),
		log:      log,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.current = store.Read()
	return a
}

// Login exchanges credentials for a session and persists it.
func (a *AuthController) Login(ctx context.Context, identifier, password string) LoginResult {
	resp, err := a.client.Login(ctx, identifier, password)
	if err != nil {
		a.log.Warn().Err(err).Str("login", identifier).Msg("login request failed")
		return LoginResult{Error: msgNetworkError}
	}

	if !resp.OK() {
		msg := failureMessage(resp.Body)
		if msg == "" {
			msg = msgLoginFailed
		}
		a.log.Info().Int("status", resp.StatusCode).Str("login", identifier).Msg("login rejected")
		return LoginResult{Error: msg}
	}

	session, err := a.sessionFrom(resp.Body)
	if err != nil {
		a.log.Error().Err(err).Str("login", identifier).Msg("unusable login response")
		return LoginResult{Error: msgLoginFailed}
	}

	if err := a.store.Persist(session); err != nil {
		a.log.Error().Err(err).Msg("failed to persist session")
		return LoginResult{Error: msgLoginFailed}
	}
	a.replace(&session)

	a.log.Info().
		Str("user_id", session.User.ID).
		Str("role", session.User.Role).
		Time("expires_at", session.ExpiresAt).
		Msg("logged in")

	return LoginResult{Success: true, User: session.User.Clone()}
}

func (a *AuthController) sessionFrom(body []byte) (domain.Session, error) {
	m, err := mapLoginResponse(body, a.now(), a.ttl)
	if err != nil {
		return domain.Session{}, err
	}

	if len(m.deviations) > 0 {
		if a.strict {
			return domain.Session{}, errors.Join(domain.ErrContractViolation,
				errors.New("non-canonical fields: "+strings.Join(m.deviations, ", ")))
		}
		a.log.Warn().Strs("fields", m.deviations).Msg("login response used non-canonical field names")
	}

	if err := a.validate.Struct(&m.user); err != nil {
		return domain.Session{}, errors.Join(domain.ErrContractViolation, err)
	}

	session := domain.NewSession(m.token, m.expiresAt, m.user)
	if !session.ValidAt(a.now()) {
		return domain.Session{}, domain.ErrExpiredSession
	}
	return session, nil
}

// Logout clears every stored copy of the session. It never touches the network.
func (a *AuthController) Logout() {
	a.store.Clear()
	a.replace(nil)
}

// RequireAuth re-reads the store and returns the logged-in user, or nil.
func (a *AuthController) RequireAuth() *domain.User {
	session := a.store.Read()
	a.replace(session)
	if session == nil {
		return nil
	}
	return session.User.Clone()
}

// Current returns a copy of the in-memory session snapshot without touching
// the store.
func (a *AuthController) Current() *domain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil || !a.current.ValidAt(a.now()) {
		return nil
	}
	s := *a.current
	s.User = *a.current.User.Clone()
	return &s
}

// RefreshSession re-issues the stored session with a fresh expiry. It returns
// false when there is no valid session to extend.
func (a *AuthController) RefreshSession() bool {
	session := a.store.Read()
	if session == nil {
		a.replace(nil)
		return false
	}
	next := domain.NewSession(session.Token, a.now().Add(a.ttl), session.User)
	if err := a.store.Persist(next); err != nil {
		a.log.Error().Err(err).Msg("failed to refresh session")
		a.replace(nil)
		return false
	}
	a.replace(&next)
	return true
}

// SessionExpiry returns when the stored session expires.
func (a *AuthController) SessionExpiry() (time.Time, bool) {
	session := a.store.Read()
	if session == nil {
		return time.Time{}, false
	}
	return session.ExpiresAt, true
}

func (a *AuthController) replace(s *domain.Session) {
	a.mu.Lock()
	a.current = s
	a.mu.Unlock()
}
