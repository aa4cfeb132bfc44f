package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/api/metrics"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// AlertHandler serves the alerts staff publish to organizations.
type AlertHandler struct {
	service ports.AlertService
}

func NewAlertHandler(service ports.AlertService) *AlertHandler {
	return &AlertHandler{service: service}
}

// List handles GET /alerts.
//
// @Summary      Alerts visible to the caller
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  alertsResponse
// @Router       /alerts [get]
func (h *AlertHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	alerts, err := h.service.List(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	return c.JSON(http.StatusOK, alertsResponse{Data: alerts})
}

// Create handles POST /alerts.
//
// @Summary      Publish an alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAlertRequest  true  "Alert"
// @Success      201   {object}  domain.Alert
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /alerts [post]
func (h *AlertHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createAlertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	alert, err := h.service.Create(c.Request().Context(), ports.CreateAlertInput{
		Caller:     caller,
		Title:      req.Title,
		Body:       req.Body,
		Level:      req.Level,
		AudienceID: req.AudienceID,
	})
	if err != nil {
		return err
	}

	metrics.AlertsPublishedTotal.WithLabelValues(string(alert.Level)).Inc()
	return c.JSON(http.StatusCreated, alert)
}

// Get handles GET /alerts/:id.
//
// @Summary      One alert
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Alert id"
// @Success      200  {object}  domain.Alert
// @Failure      404  {object}  errorResponse
// @Router       /alerts/{id} [get]
func (h *AlertHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	alert, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alert)
}

// Delete handles DELETE /alerts/:id.
//
// @Summary      Retract an alert
// @Tags         alerts
// @Security     BearerAuth
// @Param        id   path  string  true  "Alert id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /alerts/{id} [delete]
func (h *AlertHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
