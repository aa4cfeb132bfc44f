package ports

import (
	"context"

	"github.com/contaportal/portal/internal/core/domain"
)

// Caller identifies the authenticated user performing an operation.
type Caller struct {
	UserID string
	Role   domain.Role
}

// SendMessageInput is the DTO passed from the transport layer to MessageService.
type SendMessageInput struct {
	Caller Caller
	To     string
	Text   string
}

type MessageService interface {
	History(ctx context.Context, caller Caller, counterpartID string) ([]*domain.Message, error)
	Send(ctx context.Context, in SendMessageInput) (*domain.Message, error)
}
