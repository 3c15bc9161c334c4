package ports

import (
	"context"
	"time"

	"github.com/shelfvoice/portal/internal/core/domain"
)

// LoginGrant is what the reference collaborator returns on success.
type LoginGrant struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService is the use-case surface of the reference login collaborator.
type AuthService interface {
	Register(ctx context.Context, username, password, email, name, role, createdBy string) (*domain.User, error)
	Login(ctx context.Context, login, password string) (*LoginGrant, error)
	Me(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}
