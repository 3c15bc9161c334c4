package domain

import "time"

// Session proves an authenticated identity until ExpiresAt. A Session is an
// immutable snapshot: it is replaced by a new login or destroyed, never edited.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// NewSession builds a session with ExpiresAt normalised to UTC and millisecond
// precision, the resolution of the stored ISO-8601 form. Nil permissions
// become an empty set, matching the stored form.
func NewSession(token string, expiresAt time.Time, user User) Session {
	u := user.Clone()
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return Session{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Truncate(time.Millisecond),
		User:      *u,
	}
}

// ValidAt reports whether the session is usable at instant now.
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil || s.Token == "" || s.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(s.ExpiresAt)
}
