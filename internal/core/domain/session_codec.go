package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const (
	// SessionKey names the session in both the local store and the cookie jar.
	SessionKey = "session"
	// AuthTokenKey holds the bare token for older consumers of the local store.
	AuthTokenKey = "authToken"
	// SessionCookieName is the cookie the edge reads.
	SessionCookieName = SessionKey
)

// isoMillis matches the ISO-8601 form browsers produce for Date values.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type sessionWire struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	User      User   `json:"user"`
}

// EncodeSession renders the canonical JSON payload shared by every stored copy.
func EncodeSession(s Session) ([]byte, error) {
	w := sessionWire{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format(isoMillis),
		User:      s.User,
	}
	if w.User.Permissions == nil {
		w.User.Permissions = []string{}
	}
	return json.Marshal(w)
}

// DecodeSession parses a stored payload. Any shape problem, a missing token or
// a missing/unparseable expiresAt yields ErrCorruptSession.
func DecodeSession(data []byte) (Session, error) {
	var w sessionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", ErrCorruptSession)
	}
	if w.Token == "" || w.ExpiresAt == "" {
		return Session{}, fmt.Errorf("decode session: missing token or expiresAt: %w", ErrCorruptSession)
	}
	exp, err := time.Parse(time.RFC3339Nano, w.ExpiresAt)
	if err != nil {
		return Session{}, fmt.Errorf("decode session: expiresAt: %w", ErrCorruptSession)
	}
	return NewSession(w.Token, exp, w.User), nil
}

// EncodeSessionCookie returns the URL-encoded cookie value.
func EncodeSessionCookie(s Session) (string, error) {
	raw, err := EncodeSession(s)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(raw)), nil
}

// DecodeSessionCookie reverses EncodeSessionCookie.
func DecodeSessionCookie(value string) (Session, error) {
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return Session{}, fmt.Errorf("decode session cookie: %w", ErrCorruptSession)
	}
	return DecodeSession([]byte(raw))
}
