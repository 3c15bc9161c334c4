package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shelfvoice/portal/internal/core/service"
)

// RequirePermission lets the request through when the caller identified by
// Auth holds required (admins and "all" holders always do).
func RequirePermission(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !service.HasPermission(UserFromContext(c), required) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden", "message": "forbidden"})
			}
			return next(c)
		}
	}
}
