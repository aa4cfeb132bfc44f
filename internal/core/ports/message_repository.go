package ports

import (
	"context"

	"github.com/contaportal/portal/internal/core/domain"
)

// MessageRepository persists conversation messages.
type MessageRepository interface {
	Insert(ctx context.Context, m *domain.Message) (*domain.Message, error)
	// Conversation returns every message exchanged between a and b in
	// ascending creation order.
	Conversation(ctx context.Context, a, b string) ([]*domain.Message, error)
}
