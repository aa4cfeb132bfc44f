package ports

import (
	"context"

	"github.com/contaportal/portal/internal/core/domain"
)

// AlertRepository persists alerts.
type AlertRepository interface {
	Insert(ctx context.Context, a *domain.Alert) (*domain.Alert, error)
	FindByID(ctx context.Context, id string) (*domain.Alert, error)
	// List returns alerts newest first. A nil audiences slice means every
	// alert; otherwise only alerts whose audience is one of audiences ("" is
	// the broadcast audience).
	List(ctx context.Context, audiences []string) ([]*domain.Alert, error)
	Delete(ctx context.Context, id string) error
}
