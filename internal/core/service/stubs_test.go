package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Session storage stubs
// ---------------------------------------------------------------------------

type memLocal struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemLocal() *memLocal {
	return &memLocal{values: make(map[string]string)}
}

func (m *memLocal) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (m *memLocal) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memLocal) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type memCookies struct {
	cookies map[string]*http.Cookie
	setErr  error
	last    *http.Cookie
}

func newMemCookies() *memCookies {
	return &memCookies{cookies: make(map[string]*http.Cookie)}
}

func (m *memCookies) Cookie(name string) (*http.Cookie, error) {
	c, ok := m.cookies[name]
	if !ok {
		return nil, http.ErrNoCookie
	}
	return c, nil
}

func (m *memCookies) SetCookie(c *http.Cookie) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.last = c
	if c.MaxAge < 0 {
		delete(m.cookies, c.Name)
		return nil
	}
	m.cookies[c.Name] = c
	return nil
}

// ---------------------------------------------------------------------------
// Login collaborator stub
// ---------------------------------------------------------------------------

type stubLoginClient struct {
	loginFn func(ctx context.Context, username, password string) (*ports.LoginResponse, error)
	calls   int
}

func (s *stubLoginClient) Login(ctx context.Context, username, password string) (*ports.LoginResponse, error) {
	s.calls++
	return s.loginFn(ctx, username, password)
}

func respond(status int, body string) *stubLoginClient {
	return &stubLoginClient{loginFn: func(context.Context, string, string) (*ports.LoginResponse, error) {
		return &ports.LoginResponse{StatusCode: status, Body: []byte(body)}, nil
	}}
}

// ---------------------------------------------------------------------------
// Account repository + limiter stubs
// ---------------------------------------------------------------------------

type stubAuthRepo struct {
	users map[string]*ports.UserRecord
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*ports.UserRecord)}
}

func cloneRecord(r *ports.UserRecord) *ports.UserRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.User = *r.User.Clone()
	return &c
}

func (r *stubAuthRepo) Create(_ context.Context, rec *ports.UserRecord) (*ports.UserRecord, error) {
	if _, exists := r.users[rec.Username]; exists {
		return nil, domain.ErrUserExists
	}
	c := cloneRecord(rec)
	if c.User.ID == "" {
		c.User.ID = "id-" + rec.Username
	}
	r.users[c.Username] = cloneRecord(c)
	return cloneRecord(c), nil
}

func (r *stubAuthRepo) FindByLogin(_ context.Context, login string) (*ports.UserRecord, error) {
	for _, u := range r.users {
		if u.Username == login || u.User.Email == login {
			return cloneRecord(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*ports.UserRecord, error) {
	for _, u := range r.users {
		if u.User.ID == id {
			return cloneRecord(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) List(_ context.Context) ([]*ports.UserRecord, error) {
	out := make([]*ports.UserRecord, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneRecord(u))
	}
	return out, nil
}

type stubLimiter struct {
	failures   map[string]int
	max        int
	blockedErr error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), max: max}
}

func (l *stubLimiter) Blocked(_ context.Context, login string) (bool, error) {
	if l.blockedErr != nil {
		return false, l.blockedErr
	}
	return l.failures[login] >= l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, login string) error {
	l.failures[login]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, login string) error {
	delete(l.failures, login)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var errBoom = errors.New("boom")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleUser() domain.User {
	return domain.User{
		ID:          "u-1",
		Email:       "alice@example.com",
		Name:        "Alice",
		Role:        domain.RoleManager,
		Permissions: []string{domain.PermViewReports, domain.PermManageUsers},
	}
}
