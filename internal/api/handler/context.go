package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shelfvoice/portal/internal/api/middleware"
	"github.com/shelfvoice/portal/internal/core/domain"
)

// ctxUser extracts the caller identity injected by the Auth middleware and
// fails fast with 401 when it is absent.
func ctxUser(c echo.Context) (*domain.User, error) {
	user := middleware.UserFromContext(c)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return user, nil
}

// bindValid binds the request body into req and runs the echo validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
