package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/core/domain"
)

// RBAC lets the request through only when the role injected by Auth is one
// of roles. Denials surface as domain.ErrForbidden so the error handler owns
// the response shape.
func RBAC(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if !slices.Contains(roles, domain.Role(role)) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
