package handler

import "github.com/contaportal/portal/internal/core/domain"

type sendMessageRequest struct {
	To   string `json:"to"   validate:"required"`
	Text string `json:"text" validate:"required"`
}

type messagesResponse struct {
	Data []*domain.Message `json:"data"`
}
