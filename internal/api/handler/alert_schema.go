package handler

import "github.com/contaportal/portal/internal/core/domain"

type createAlertRequest struct {
	Title      string `json:"title"       validate:"required,max=200"`
	Body       string `json:"body"        validate:"max=4000"`
	Level      string `json:"level"       validate:"omitempty,oneof=info warning critical"`
	AudienceID string `json:"audience_id"`
}

type alertsResponse struct {
	Data []*domain.Alert `json:"data"`
}
