package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/contaportal/portal/internal/api/metrics"
	"github.com/contaportal/portal/internal/core/domain"
	"github.com/contaportal/portal/internal/core/ports"
)

// MessageHandler handles conversation history and message sending.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// History handles GET /messages/:counterpart_id.
//
// @Summary      Conversation history
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        counterpart_id  path      string  true  "Counterpart user id"
// @Success      200             {object}  messagesResponse
// @Failure      403             {object}  errorResponse
// @Failure      404             {object}  errorResponse
// @Router       /messages/{counterpart_id} [get]
func (h *MessageHandler) History(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	msgs, err := h.service.History(c.Request().Context(), caller, c.Param("counterpart_id"))
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return c.JSON(http.StatusOK, messagesResponse{Data: msgs})
}

// Send handles POST /messages.
//
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sendMessageRequest  true  "Recipient and text"
// @Success      201   {object}  domain.Message
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	msg, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		Caller: caller,
		To:     req.To,
		Text:   req.Text,
	})
	if err != nil {
		return err
	}

	metrics.MessagesSentTotal.WithLabelValues(string(caller.Role)).Inc()
	return c.JSON(http.StatusCreated, msg)
}
