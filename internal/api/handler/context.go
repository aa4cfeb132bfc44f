package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/api/middleware"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// ctxCaller extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: the user id must be
// present and the role must belong to the closed role set.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	if userID == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	raw, _ := c.Get(middleware.KeyRole).(string)
	role, err := domain.ParseRole(raw)
	if err != nil {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "token carries an unknown role")
	}

	return ports.Caller{UserID: userID, Role: role}, nil
}

func ctxToken(c echo.Context) (jti string, expiresAt time.Time) {
	jti, _ = c.Get(middleware.KeyTokenID).(string)
	expiresAt, _ = c.Get(middleware.KeyExpiresAt).(time.Time)
	return jti, expiresAt
}
