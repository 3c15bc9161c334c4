package ports

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned by LocalStore and CookieStore for absent keys.
var ErrNotFound = errors.New("not found")

// LocalStore is the script-readable key/value representation of client state.
type LocalStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// CookieStore is the request-time-readable representation: the cookies the
// client will send to the edge.
type CookieStore interface {
	Cookie(name string) (*http.Cookie, error)
	SetCookie(c *http.Cookie) error
}
