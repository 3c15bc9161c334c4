package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/api/metrics"
	"github.com/shelfvoice/portal/internal/core/domain"
)

// CtxSession holds the *domain.Session the guard accepted.
const CtxSession = "session"

// GuardConfig configures RouteGuard.
type GuardConfig struct {
	// ProtectedPrefixes are matched against the request path with a plain
	// prefix test.
	ProtectedPrefixes []string
	// LoginPath receives rejected requests. Defaults to /login.
	LoginPath string
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// RouteGuard admits a request to a protected path only when it carries a
// session cookie that decodes and has not expired. It never consults any other
// state. Rejected requests are sent to LoginPath?redirect=<path>.
func RouteGuard(cfg GuardConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !isProtected(path, cfg.ProtectedPrefixes) {
				return next(c)
			}

			session, outcome := SessionFromCookie(c.Request(), cfg.Now())
			metrics.GuardDecisionsTotal.WithLabelValues(outcome).Inc()
			if outcome != metrics.GuardAllowed {
				cfg.Logger.Debug().Str("path", path).Str("outcome", outcome).Msg("redirecting to login")
				return c.Redirect(http.StatusTemporaryRedirect, LoginRedirect(cfg.LoginPath, path))
			}

			c.Set(CtxSession, session)
			return next(c)
		}
	}
}

// LoginRedirect builds loginPath?redirect=<original>.
func LoginRedirect(loginPath, original string) string {
	return loginPath + "?" + url.Values{"redirect": {original}}.Encode()
}

func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// SessionFromCookie decodes the session cookie on r and reports the guard
// outcome. The session is non-nil only for metrics.GuardAllowed.
func SessionFromCookie(r *http.Request, now time.Time) (*domain.Session, string) {
	cookie, err := r.Cookie(domain.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, metrics.GuardMissing
	}
	session, err := domain.DecodeSessionCookie(cookie.Value)
	if err != nil {
		return nil, metrics.GuardCorrupt
	}
	if !session.ValidAt(now) {
		return nil, metrics.GuardExpired
	}
	return &session, metrics.GuardAllowed
}
