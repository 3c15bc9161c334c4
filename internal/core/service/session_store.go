package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

// DefaultCookieLifetime bounds the session cookie's Max-Age.
const DefaultCookieLifetime = 24 * time.Hour

// SessionStore keeps the canonical session in two representations: the local
// key/value store and the cookie sent to the edge. Absence, corruption or
// disagreement of either copy reads as "no session" (fail-closed).
type SessionStore struct {
	local          ports.LocalStore
	cookies        ports.CookieStore
	cookieLifetime time.Duration
	now            func() time.Time
	log            zerolog.Logger
}

// SessionStoreOption customises a SessionStore.
type SessionStoreOption func(*SessionStore)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) SessionStoreOption {
	return func(s *SessionStore) { s.now = now }
}

// WithCookieLifetime caps the cookie Max-Age.
func WithCookieLifetime(d time.Duration) SessionStoreOption {
	return func(s *SessionStore) {
		if d > 0 {
			s.cookieLifetime = d
		}
	}
}

func NewSessionStore(local ports.LocalStore, cookies ports.CookieStore, log zerolog.Logger, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		local:          local,
		cookies:        cookies,
		cookieLifetime: DefaultCookieLifetime,
		now:            time.Now,
		log:            log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist writes the session to every representation from one call site. If
// any write fails, whatever was written is cleared again.
func (s *SessionStore) Persist(session domain.Session) error {
	payload, err := domain.EncodeSession(session)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	cookieValue, err := domain.EncodeSessionCookie(session)
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	if err := s.writeAll(string(payload), session.Token, s.sessionCookie(cookieValue, session.ExpiresAt)); err != nil {
		s.Clear()
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (s *SessionStore) writeAll(payload, token string, cookie *http.Cookie) error {
	if err := s.local.Set(domain.SessionKey, payload); err != nil {
		return err
	}
	if err := s.local.Set(domain.AuthTokenKey, token); err != nil {
		return err
	}
	return s.cookies.SetCookie(cookie)
}

// sessionCookie lives exactly as long as the session, capped at cookieLifetime.
func (s *SessionStore) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(s.now()) / time.Second)
	if limit := int(s.cookieLifetime / time.Second); maxAge > limit {
		maxAge = limit
	}
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		SameSite: http.SameSiteStrictMode,
	}
}

// Read returns the current valid session or nil. It never fails: every
// problem it finds clears all representations first.
func (s *SessionStore) Read() *domain.Session {
	session, err := s.load()
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.log.Debug().Err(err).Msg("discarding stored session")
		}
		s.Clear()
		return nil
	}
	return session
}

func (s *SessionStore) load() (*domain.Session, error) {
	payload, err := s.local.Get(domain.SessionKey)
	if err != nil {
		return nil, absence(err)
	}
	cookie, err := s.cookies.Cookie(domain.SessionCookieName)
	if err != nil {
		return nil, absence(err)
	}

	local, err := domain.DecodeSession([]byte(payload))
	if err != nil {
		return nil, err
	}
	edge, err := domain.DecodeSessionCookie(cookie.Value)
	if err != nil {
		return nil, err
	}
	if !sameSession(local, edge) {
		return nil, domain.ErrSessionMismatch
	}
	if token, err := s.local.Get(domain.AuthTokenKey); err == nil && token != local.Token {
		return nil, fmt.Errorf("%w: stale %s", domain.ErrSessionMismatch, domain.AuthTokenKey)
	}
	if !s.IsValid(&local) {
		return nil, domain.ErrExpiredSession
	}
	return &local, nil
}

// Clear removes every representation. Calling it repeatedly is harmless.
func (s *SessionStore) Clear() {
	for _, key := range []string{domain.SessionKey, domain.AuthTokenKey} {
		if err := s.local.Remove(key); err != nil && !errors.Is(err, ports.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to remove local session key")
		}
	}
	expired := &http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	}
	if err := s.cookies.SetCookie(expired); err != nil {
		s.log.Warn().Err(err).Msg("failed to expire session cookie")
	}
}

// IsValid reports whether session has a token and an expiry in the future.
func (s *SessionStore) IsValid(session *domain.Session) bool {
	return session.ValidAt(s.now())
}

func absence(err error) error {
	if errors.Is(err, ports.ErrNotFound) || errors.Is(err, http.ErrNoCookie) {
		return domain.ErrNoSession
	}
	return fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
}

func sameSession(a, b domain.Session) bool {
	ea, errA := domain.EncodeSession(a)
	eb, errB := domain.EncodeSession(b)
	return errA == nil && errB == nil && string(ea) == string(eb)
}
