package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/api/metrics"
	"github.com/shelfvoice/portal/internal/api/middleware"
	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/service"
)

// PortalHandler serves the edge's own pages: the root bootstrap, logout, the
// login landing and the dashboard shells behind the route guard.
type PortalHandler struct {
	nav       []domain.NavItem
	loginPath string
	now       func() time.Time
	log       zerolog.Logger
}

func NewPortalHandler(nav []domain.NavItem, loginPath string, now func() time.Time, log zerolog.Logger) *PortalHandler {
	if loginPath == "" {
		loginPath = service.LoginPath
	}
	if now == nil {
		now = time.Now
	}
	return &PortalHandler{nav: nav, loginPath: loginPath, now: now, log: log}
}

type pageResponse struct {
	Path       string           `json:"path"`
	User       *domain.User     `json:"user"`
	ExpiresAt  time.Time        `json:"expiresAt"`
	Navigation []domain.NavItem `json:"navigation"`
}

type loginPageResponse struct {
	Login    string `json:"login"`
	Redirect string `json:"redirect,omitempty"`
}

// Bootstrap decides where "/" goes: a valid session lands on its role's
// dashboard, anything else clears the cookie and goes to the login page.
//
// @Summary      Bootstrap redirect
// @Tags         portal
// @Success      302
// @Router       / [get]
func (h *PortalHandler) Bootstrap(c echo.Context) error {
	session, outcome := middleware.SessionFromCookie(c.Request(), h.now())
	if session == nil {
		h.log.Debug().Str("outcome", outcome).Msg("bootstrap without valid session")
		clearSessionCookie(c)
		metrics.BootstrapRedirectsTotal.WithLabelValues(h.loginPath).Inc()
		return c.Redirect(http.StatusFound, h.loginPath)
	}

	target, ok := service.RedirectTargetFor(session.User.Role, c.Request().URL.Path)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	metrics.BootstrapRedirectsTotal.WithLabelValues(target).Inc()
	return c.Redirect(http.StatusFound, target)
}

// Dashboard renders the shell of a guarded page: who is looking and which
// navigation entries they may see. A session on the wrong role's dashboard is
// bounced to its own landing path.
//
// @Summary      Dashboard shell
// @Tags         portal
// @Produce      json
// @Success      200  {object}  pageResponse
// @Success      302
// @Router       /dashboard [get]
func (h *PortalHandler) Dashboard(c echo.Context) error {
	session, _ := c.Get(middleware.CtxSession).(*domain.Session)
	if session == nil {
		return c.Redirect(http.StatusTemporaryRedirect, middleware.LoginRedirect(h.loginPath, c.Request().URL.Path))
	}

	path := c.Request().URL.Path
	if path == service.DashboardPath || path == service.AuditorDashboardPath {
		if target, ok := service.RedirectTargetFor(session.User.Role, path); ok {
			return c.Redirect(http.StatusFound, target)
		}
	}

	return c.JSON(http.StatusOK, pageResponse{
		Path:       path,
		User:       &session.User,
		ExpiresAt:  session.ExpiresAt,
		Navigation: service.FilterNavigation(h.nav, &session.User),
	})
}

// Navigation returns the sidebar entries the session's user may see.
//
// @Summary      Navigation
// @Tags         portal
// @Produce      json
// @Success      200  {array}   domain.NavItem
// @Failure      401  {object}  map[string]string
// @Router       /api/navigation [get]
func (h *PortalHandler) Navigation(c echo.Context) error {
	session, _ := middleware.SessionFromCookie(c.Request(), h.now())
	if session == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no valid session")
	}
	return c.JSON(http.StatusOK, service.FilterNavigation(h.nav, &session.User))
}

// Login is the landing page for rejected requests. Credentials go to the API,
// not to the edge.
//
// @Summary      Login page
// @Tags         portal
// @Produce      json
// @Param        redirect  query     string  false  "Path to return to"
// @Success      200       {object}  loginPageResponse
// @Router       /login [get]
func (h *PortalHandler) Login(c echo.Context) error {
	return c.JSON(http.StatusOK, loginPageResponse{
		Login:    "sign in required",
		Redirect: c.QueryParam("redirect"),
	})
}

// Logout expires the session cookie.
//
// @Summary      Logout
// @Tags         portal
// @Success      204
// @Router       /logout [post]
func (h *PortalHandler) Logout(c echo.Context) error {
	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	})
}
