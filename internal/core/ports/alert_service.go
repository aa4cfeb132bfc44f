package ports

import (
	"context"

	"github.com/contaportal/portal/internal/core/domain"
)

// CreateAlertInput is the DTO passed from the transport layer to AlertService.
type CreateAlertInput struct {
	Caller     Caller
	Title      string
	Body       string
	Level      string
	AudienceID string // empty means every organization
}

type AlertService interface {
	Create(ctx context.Context, in CreateAlertInput) (*domain.Alert, error)
	List(ctx context.Context, caller Caller) ([]*domain.Alert, error)
	Get(ctx context.Context, caller Caller, id string) (*domain.Alert, error)
	Delete(ctx context.Context, caller Caller, id string) error
}
