package ports

import (
	"context"
	"time"

	"github.com/contaportal/portal/internal/core/domain"
)

// RegisterInput carries the fields needed to create a portal account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	TaxID    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Counterparts(ctx context.Context, role domain.Role, filter string) ([]*domain.User, error)
}
