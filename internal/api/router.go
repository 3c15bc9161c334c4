package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/shelfvoice/portal/internal/api/handler"
	"github.com/shelfvoice/portal/internal/api/middleware"
	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

// Observability wires HTTP request metrics. Nil fields fall back to the
// default Prometheus registry.
type Observability struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func (o Observability) attach(e *echo.Echo, subsystem string) {
	reg, gat := o.Registerer, o.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gat == nil {
		gat = prometheus.DefaultGatherer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  subsystem,
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gat}))
}

func newEcho(log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	return e
}

// EdgeDeps are the collaborators of the edge server.
type EdgeDeps struct {
	ProtectedPrefixes []string
	LoginPath         string
	Navigation        []domain.NavItem
	Now               func() time.Time
	Logger            zerolog.Logger
	Observability     Observability
}

// NewEdgeRouter builds the edge: the route guard in front of every protected
// prefix plus the bootstrap, login, logout and navigation endpoints.
func NewEdgeRouter(d EdgeDeps) *echo.Echo {
	e := newEcho(d.Logger)
	d.Observability.attach(e, "edge")

	e.Use(middleware.RouteGuard(middleware.GuardConfig{
		ProtectedPrefixes: d.ProtectedPrefixes,
		LoginPath:         d.LoginPath,
		Now:               d.Now,
		Logger:            d.Logger,
	}))

	portal := handler.NewPortalHandler(d.Navigation, d.LoginPath, d.Now, d.Logger)
	e.GET("/", portal.Bootstrap)
	e.GET(loginPathOr(d.LoginPath), portal.Login)
	e.POST("/logout", portal.Logout)
	e.GET("/api/navigation", portal.Navigation)

	for _, prefix := range d.ProtectedPrefixes {
		e.GET(prefix, portal.Dashboard)
		e.GET(prefix+"/*", portal.Dashboard)
	}

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)

	return e
}

// AuthStubDeps are the collaborators of the reference login service.
type AuthStubDeps struct {
	AuthService   ports.AuthService
	JWTSecret     string
	Checks        map[string]handler.CheckFunc
	Logger        zerolog.Logger
	Observability Observability
}

// NewAuthStubRouter builds the login collaborator API.
func NewAuthStubRouter(d AuthStubDeps) *echo.Echo {
	e := newEcho(d.Logger)
	d.Observability.attach(e, "auth")

	authHandler := handler.NewAuthHandler(d.AuthService)
	auth := middleware.Auth(d.JWTSecret)

	// --- User routes ---
	users := e.Group("/api/users")
	users.POST("/login", authHandler.Login)
	users.GET("/me", authHandler.Me, auth)
	users.GET("", authHandler.List, auth, middleware.RequirePermission(domain.PermManageUsers))
	users.POST("", authHandler.Create, auth, middleware.RequirePermission(domain.PermManageUsers))

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)

	return e
}

func loginPathOr(p string) string {
	if p == "" {
		return "/login"
	}
	return p
}
