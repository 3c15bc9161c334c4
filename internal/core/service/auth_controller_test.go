package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

func newTestController(client ports.LoginClient, opts ...AuthOption) (*AuthController, *SessionStore) {
	store, _, _ := newTestStore()
	opts = append([]AuthOption{WithAuthClock(fixedClock(testNow))}, opts...)
	return NewAuthController(client, store, zerolog.Nop(), opts...), store
}

func body(t *testing.T, v map[string]any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestAuthController_LoginCanonicalFields(t *testing.T) {
	client := respond(200, body(t, map[string]any{
		"token":       "tok",
		"id":          "u-7",
		"email":       "kim@example.com",
		"name":        "Kim",
		"role":        "supervisor",
		"permissions": []string{"view_reports", "view_gps"},
		"createdBy":   "u-1",
		"expiresAt":   testNow.Add(time.Hour).Format(time.RFC3339),
	}))
	auth, store := newTestController(client, WithStrictContract(true))

	res := auth.Login(context.Background(), "kim@example.com", "pw")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, &domain.User{
		ID:          "u-7",
		Email:       "kim@example.com",
		Name:        "Kim",
		Role:        domain.RoleSupervisor,
		Permissions: []string{"view_reports", "view_gps"},
		CreatedBy:   "u-1",
	}, res.User)

	stored := store.Read()
	require.NotNil(t, stored)
	assert.Equal(t, "tok", stored.Token)
	assert.Equal(t, testNow.Add(time.Hour), stored.ExpiresAt)
	assert.Equal(t, stored, auth.Current())
}

func TestAuthController_LoginAliasesAndDefaults(t *testing.T) {
	client := respond(200, body(t, map[string]any{
		"token":      "tok",
		"user_id":    42,
		"username":   "lee",
		"created_by": "u-1",
	}))
	auth, _ := newTestController(client)

	res := auth.Login(context.Background(), "lee", "pw")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "42", res.User.ID)
	assert.Equal(t, "lee", res.User.Email)
	assert.Equal(t, "lee", res.User.Name)
	assert.Equal(t, "u-1", res.User.CreatedBy)
	assert.Equal(t, domain.RoleRegional, res.User.Role)
	assert.Equal(t, []string{domain.PermViewReports}, res.User.Permissions)

	// No expiry anywhere: the fallback lifetime applies.
	exp, ok := auth.SessionExpiry()
	require.True(t, ok)
	assert.Equal(t, testNow.Add(DefaultSessionTTL), exp)
}

func TestAuthController_LoginKeepsExplicitEmptyPermissions(t *testing.T) {
	auth, store := newTestController(respond(200, `{"token":"tok","id":"u","role":"manager","permissions":[]}`))

	res := auth.Login(context.Background(), "u", "pw")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{}, res.User.Permissions)

	stored := store.Read()
	require.NotNil(t, stored)
	assert.Empty(t, stored.User.Permissions)
	assert.False(t, HasPermission(&stored.User, domain.PermViewReports))

	// null is treated like an omitted field.
	auth, _ = newTestController(respond(200, `{"token":"tok","id":"u","permissions":null}`))
	res = auth.Login(context.Background(), "u", "pw")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{domain.PermViewReports}, res.User.Permissions)
}

func TestAuthController_CurrentReturnsIndependentCopy(t *testing.T) {
	auth, _ := newTestController(respond(200, `{"token":"t","id":"u","permissions":["view_reports","view_gps"]}`))
	require.True(t, auth.Login(context.Background(), "u", "pw").Success)

	first := auth.Current()
	require.NotNil(t, first)
	first.User.Permissions[0] = domain.PermAll
	first.User.Permissions = append(first.User.Permissions, domain.PermManageUsers)

	again := auth.Current()
	require.NotNil(t, again)
	assert.Equal(t, []string{"view_reports", "view_gps"}, again.User.Permissions)
}

func TestAuthController_LoginFirstLastName(t *testing.T) {
	client := respond(200, body(t, map[string]any{
		"token":     "tok",
		"id":        "u-1",
		"firstName": "Ana",
		"lastName":  "Ruiz",
	}))
	auth, _ := newTestController(client)

	res := auth.Login(context.Background(), "ana", "pw")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Ana Ruiz", res.User.Name)
}

func TestAuthController_StrictContractRejectsAliases(t *testing.T) {
	client := respond(200, body(t, map[string]any{"token": "tok", "_id": "abc"}))
	auth, store := newTestController(client, WithStrictContract(true))

	res := auth.Login(context.Background(), "x", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, "Login failed", res.Error)
	assert.Nil(t, store.Read())
}

func TestAuthController_ExpiryFromEpochMillis(t *testing.T) {
	exp := testNow.Add(3 * time.Hour)
	client := respond(200, body(t, map[string]any{"token": "tok", "id": "u", "expiresAt": exp.UnixMilli()}))
	auth, _ := newTestController(client)

	require.True(t, auth.Login(context.Background(), "u", "pw").Success)
	got, ok := auth.SessionExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got), "want %v, got %v", exp, got)
}

func TestAuthController_ExpiryFromTokenClaim(t *testing.T) {
	exp := testNow.Add(90 * time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	auth, _ := newTestController(respond(200, body(t, map[string]any{"token": token, "id": "u"})))

	require.True(t, auth.Login(context.Background(), "u", "pw").Success)
	got, ok := auth.SessionExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got), "want %v, got %v", exp, got)
}

func TestAuthController_LoginFailures(t *testing.T) {
	cases := []struct {
		name    string
		client  *stubLoginClient
		wantErr string
	}{
		{
			name: "transport failure",
			client: &stubLoginClient{loginFn: func(context.Context, string, string) (*ports.LoginResponse, error) {
				return nil, fmt.Errorf("dial: %w", errBoom)
			}},
			wantErr: "Network error",
		},
		{name: "message", client: respond(401, `{"message":"Invalid credentials"}`), wantErr: "Invalid credentials"},
		{name: "error field", client: respond(429, `{"error":"Too many attempts"}`), wantErr: "Too many attempts"},
		{name: "no explanation", client: respond(500, `<html>oops</html>`), wantErr: "Login failed"},
		{name: "missing token", client: respond(200, `{"id":"u"}`), wantErr: "Login failed"},
		{name: "not json", client: respond(200, `ok`), wantErr: "Login failed"},
		{name: "unknown role", client: respond(200, `{"token":"t","id":"u","role":"janitor"}`), wantErr: "Login failed"},
		{name: "permissions not a list", client: respond(200, `{"token":"t","id":"u","permissions":"all"}`), wantErr: "Login failed"},
		{name: "already expired", client: respond(200, fmt.Sprintf(`{"token":"t","id":"u","expiresAt":%d}`, testNow.Add(-time.Second).UnixMilli())), wantErr: "Login failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth, store := newTestController(tc.client)

			res := auth.Login(context.Background(), "who", "pw")
			assert.False(t, res.Success)
			assert.Equal(t, tc.wantErr, res.Error)
			assert.Nil(t, res.User)
			assert.Nil(t, store.Read())
			assert.Equal(t, 1, tc.client.calls)
		})
	}
}

func TestAuthController_PersistFailure(t *testing.T) {
	local, cookies := newMemLocal(), newMemCookies()
	cookies.setErr = errBoom
	store := NewSessionStore(local, cookies, zerolog.Nop(), WithClock(fixedClock(testNow)))
	auth := NewAuthController(respond(200, `{"token":"t","id":"u"}`), store, zerolog.Nop(), WithAuthClock(fixedClock(testNow)))

	res := auth.Login(context.Background(), "u", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, "Login failed", res.Error)
	assert.Nil(t, auth.Current())
}

func TestAuthController_LogoutAndRequireAuth(t *testing.T) {
	auth, store := newTestController(respond(200, `{"token":"t","id":"u","role":"manager"}`))
	require.True(t, auth.Login(context.Background(), "u", "pw").Success)

	user := auth.RequireAuth()
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleManager, user.Role)

	auth.Logout()
	assert.Nil(t, auth.RequireAuth())
	assert.Nil(t, auth.Current())
	assert.Nil(t, store.Read())

	auth.Logout()
	assert.Nil(t, auth.RequireAuth())
}

func TestAuthController_RestoresStoredSession(t *testing.T) {
	store, _, _ := newTestStore()
	require.NoError(t, store.Persist(domain.NewSession("tok", testNow.Add(time.Hour), sampleUser())))

	auth := NewAuthController(respond(500, ``), store, zerolog.Nop(), WithAuthClock(fixedClock(testNow)))
	current := auth.Current()
	require.NotNil(t, current)
	assert.Equal(t, "tok", current.Token)
}

func TestAuthController_RefreshSession(t *testing.T) {
	clock := testNow
	now := func() time.Time { return clock }
	local, cookies := newMemLocal(), newMemCookies()
	store := NewSessionStore(local, cookies, zerolog.Nop(), WithClock(now))
	auth := NewAuthController(respond(200, `{"token":"t","id":"u"}`), store, zerolog.Nop(),
		WithAuthClock(now), WithSessionTTL(time.Hour))

	assert.False(t, auth.RefreshSession(), "nothing to refresh before login")
	require.True(t, auth.Login(context.Background(), "u", "pw").Success)

	clock = testNow.Add(50 * time.Minute)
	require.True(t, auth.RefreshSession())
	exp, ok := auth.SessionExpiry()
	require.True(t, ok)
	assert.Equal(t, clock.Add(time.Hour), exp)

	clock = testNow.Add(3 * time.Hour)
	assert.False(t, auth.RefreshSession())
	assert.Nil(t, auth.Current())
}

// Login as an auditor, then bootstrap: the stored role decides the landing page.
func TestAuthController_AuditorLoginLandsOnAuditorDashboard(t *testing.T) {
	client := respond(200, body(t, map[string]any{
		"token":       "abc",
		"role":        "auditor",
		"permissions": []string{"view_reports"},
		"expiresAt":   testNow.UnixMilli() + 86400000,
	}))
	auth, store := newTestController(client)

	res := auth.Login(context.Background(), "auditor@example.com", "pw")
	require.True(t, res.Success, res.Error)

	session := store.Read()
	require.NotNil(t, session)
	assert.Equal(t, domain.RoleAuditor, session.User.Role)
	assert.Equal(t, []string{"view_reports"}, session.User.Permissions)

	target, redirect := RedirectTargetFor(session.User.Role, "/")
	assert.True(t, redirect)
	assert.Equal(t, AuditorDashboardPath, target)

	_, redirect = RedirectTargetFor(session.User.Role, target)
	assert.False(t, redirect)
}

func TestMapLoginResponse_Deviations(t *testing.T) {
	m, err := mapLoginResponse([]byte(`{"token":"t","userId":"9","full_name":"Max","email":"m@x.io"}`), testNow, time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"userId as id", "full_name as name"}, m.deviations)

	_, err = mapLoginResponse([]byte(`[]`), testNow, time.Hour)
	assert.True(t, errors.Is(err, domain.ErrContractViolation))
}
