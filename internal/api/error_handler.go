package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/contaportal/portal/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// domainError binds a sentinel to its status. An empty message means the
// sentinel's own text is safe to show.
type domainError struct {
	target  error
	status  int
	message string
}

var domainErrors = []domainError{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrTokenRevoked, http.StatusUnauthorized, "token revoked"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrCounterpartNotFound, http.StatusNotFound, "counterpart not found"},
	{domain.ErrDocumentNotFound, http.StatusNotFound, "document not found"},
	{domain.ErrAlertNotFound, http.StatusNotFound, "alert not found"},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, "document exceeds upload limit"},
	{domain.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid role"},
	{domain.ErrEmptyMessage, http.StatusUnprocessableEntity, ""},
	{domain.ErrMessageTooLong, http.StatusUnprocessableEntity, ""},
	{domain.ErrSelfMessage, http.StatusUnprocessableEntity, ""},
	{domain.ErrEmptyAlert, http.StatusUnprocessableEntity, ""},
	{domain.ErrAlertTooLong, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidAlertLevel, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidAudience, http.StatusUnprocessableEntity, ""},
}

// NewHTTPErrorHandler renders every failure as {"error": msg}. Unknown
// errors are logged with the request id and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg, known := classify(err)
		if !known {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: msg})
	}
}

func classify(err error) (int, string, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message), true
	}
	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			if de.message == "" {
				return de.status, de.target.Error(), true
			}
			return de.status, de.message, true
		}
	}
	return http.StatusInternalServerError, "internal server error", false
}
