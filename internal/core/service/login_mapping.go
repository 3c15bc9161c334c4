package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shelfvoice/portal/internal/core/domain"
)

// fieldAlias declares where one user attribute may appear in a login
// response. keys[0] is the canonical name; the rest are historical variants
// tried in order.
type fieldAlias struct {
	attr string
	keys []string
}

// responseAliases is the only place login response field names are known.
var responseAliases = []fieldAlias{
	{attr: "id", keys: []string{"id", "user_id", "userId", "_id"}},
	{attr: "email", keys: []string{"email", "username"}},
	{attr: "name", keys: []string{"name", "full_name", "username"}},
	{attr: "createdBy", keys: []string{"createdBy", "created_by"}},
}

// mappedLogin is a login response after alias resolution.
type mappedLogin struct {
	token      string
	expiresAt  time.Time
	user       domain.User
	deviations []string
}

type loginFields map[string]json.RawMessage

// scalar returns a string or number field as text; "" for anything else.
func (f loginFields) scalar(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

func (f loginFields) resolve(a fieldAlias) (value, usedKey string) {
	for _, key := range a.keys {
		if v := f.scalar(key); v != "" {
			return v, key
		}
	}
	return "", ""
}

// failureMessage extracts the collaborator's explanation of a rejected login.
func failureMessage(body []byte) string {
	var f loginFields
	if err := json.Unmarshal(body, &f); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if v := f.scalar(key); v != "" {
			return v
		}
	}
	return ""
}

// mapLoginResponse turns a successful login body into a session candidate.
// Omitted (or null) role and permissions fall back to the baseline defaults; every use
// of a non-canonical field name is reported in deviations.
func mapLoginResponse(body []byte, now time.Time, ttl time.Duration) (*mappedLogin, error) {
	var f loginFields
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("map login response: %w", domain.ErrContractViolation)
	}

	m := &mappedLogin{token: f.scalar("token")}
	if m.token == "" {
		return nil, fmt.Errorf("map login response: missing token: %w", domain.ErrContractViolation)
	}

	values := make(map[string]string, len(responseAliases))
	for _, a := range responseAliases {
		v, key := f.resolve(a)
		values[a.attr] = v
		if key != "" && key != a.keys[0] {
			m.deviations = append(m.deviations, key+" as "+a.attr)
		}
	}
	if values["name"] == "" {
		full := strings.TrimSpace(f.scalar("firstName") + " " + f.scalar("lastName"))
		if full != "" {
			values["name"] = full
			m.deviations = append(m.deviations, "firstName+lastName as name")
		}
	}

	role := f.scalar("role")
	if role == "" {
		role = domain.DefaultRole
	}
	perms, err := permissionsField(f)
	if err != nil {
		return nil, err
	}

	m.user = domain.User{
		ID:          values["id"],
		Email:       values["email"],
		Name:        values["name"],
		Role:        role,
		Permissions: perms,
		CreatedBy:   values["createdBy"],
	}
	m.expiresAt = expiryOf(f, m.token, now, ttl)
	return m, nil
}

func permissionsField(f loginFields) ([]string, error) {
	raw, ok := f["permissions"]
	if !ok || string(raw) == "null" {
		return domain.DefaultPermissions(), nil
	}
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return nil, fmt.Errorf("map login response: permissions: %w", domain.ErrContractViolation)
	}
	// An explicit [] stays empty; the default covers omission only.
	return perms, nil
}

// expiryOf prefers an explicit expiresAt (ISO string or epoch millis), then the
// token's own exp claim, then now+ttl.
func expiryOf(f loginFields, token string, now time.Time, ttl time.Duration) time.Time {
	if v := f.scalar("expiresAt"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	if exp, ok := tokenExpiry(token); ok {
		return exp
	}
	return now.Add(ttl)
}

// tokenExpiry reads exp from a JWT without verifying it. The edge never trusts
// this value; it only decides how long the client keeps the session around.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
