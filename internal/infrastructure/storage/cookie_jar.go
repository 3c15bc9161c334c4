package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// storedCookie is the on-disk form of one cookie.
type storedCookie struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path"`
	Expires  time.Time     `json:"expires"`
	SameSite http.SameSite `json:"sameSite"`
}

// CookieJar holds the cookies portalctl presents to a single edge origin. It
// is both an http.CookieJar, so responses from the edge update it, and a
// ports.CookieStore, so the session store can write the session cookie
// directly. With a non-empty path the jar is persisted between runs; a jar
// file that does not decode is read as empty.
type CookieJar struct {
	mu      sync.Mutex
	host    string
	path    string
	now     func() time.Time
	log     zerolog.Logger
	cookies map[string]storedCookie
}

// NewCookieJar creates a jar scoped to origin's host. path may be empty for a
// memory-only jar.
func NewCookieJar(origin, path string, log zerolog.Logger) (*CookieJar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("cookie jar origin: %w", err)
	}
	j := &CookieJar{
		host:    u.Hostname(),
		path:    path,
		now:     time.Now,
		log:     log,
		cookies: make(map[string]storedCookie),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// Cookie returns the named unexpired cookie or http.ErrNoCookie.
func (j *CookieJar) Cookie(name string) (*http.Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.load(); err != nil {
		return nil, err
	}
	sc, ok := j.cookies[name]
	if !ok || !sc.Expires.After(j.now()) {
		return nil, http.ErrNoCookie
	}
	return &http.Cookie{Name: sc.Name, Value: sc.Value, Path: sc.Path, Expires: sc.Expires, SameSite: sc.SameSite}, nil
}

// SetCookie stores c, or deletes it when c is expired.
func (j *CookieJar) SetCookie(c *http.Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.load(); err != nil {
		return err
	}
	j.apply(c)
	return j.save()
}

// SetCookies implements http.CookieJar.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u.Hostname() != j.host {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.load(); err != nil {
		return
	}
	for _, c := range cookies {
		j.apply(c)
	}
	_ = j.save()
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	if u.Hostname() != j.host {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.load(); err != nil {
		return nil
	}
	reqPath := u.Path
	if reqPath == "" {
		reqPath = "/"
	}
	now := j.now()
	var out []*http.Cookie
	for _, sc := range j.cookies {
		if sc.Expires.After(now) && strings.HasPrefix(reqPath, sc.Path) {
			out = append(out, &http.Cookie{Name: sc.Name, Value: sc.Value})
		}
	}
	return out
}

func (j *CookieJar) apply(c *http.Cookie) {
	now := j.now()
	expires := c.Expires
	switch {
	case c.MaxAge < 0:
		expires = time.Time{}
	case c.MaxAge > 0:
		expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case expires.IsZero():
		// Session cookie; the CLI has no browser session to end it.
		expires = now.Add(24 * time.Hour)
	}
	if !expires.After(now) {
		delete(j.cookies, c.Name)
		return
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	j.cookies[c.Name] = storedCookie{Name: c.Name, Value: c.Value, Path: path, Expires: expires, SameSite: c.SameSite}
}

func (j *CookieJar) load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		j.cookies = make(map[string]storedCookie)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookie jar: %w", err)
	}
	var list []storedCookie
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			j.log.Warn().Err(err).Str("path", j.path).Msg("cookie jar unreadable, starting empty")
			list = nil
		}
	}
	j.cookies = make(map[string]storedCookie, len(list))
	for _, sc := range list {
		j.cookies[sc.Name] = sc
	}
	return nil
}

func (j *CookieJar) save() error {
	if j.path == "" {
		return nil
	}
	list := make([]storedCookie, 0, len(j.cookies))
	for _, sc := range j.cookies {
		list = append(list, sc)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookie jar: %w", err)
	}
	return writeFileAtomic(j.path, data)
}
