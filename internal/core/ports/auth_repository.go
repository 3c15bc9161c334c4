package ports

import (
	"context"

	"github.com/shelfvoice/portal/internal/core/domain"
)

// UserRecord is a stored account of the reference login collaborator.
type UserRecord struct {
	User         domain.User
	Username     string
	PasswordHash string
}

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	// FindByLogin looks an account up by username or email.
	FindByLogin(ctx context.Context, login string) (*UserRecord, error)
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	Create(ctx context.Context, rec *UserRecord) (*UserRecord, error)
	List(ctx context.Context) ([]*UserRecord, error)
}

// AttemptLimiter throttles repeated failed logins per identifier.
type AttemptLimiter interface {
	Blocked(ctx context.Context, login string) (bool, error)
	RecordFailure(ctx context.Context, login string) error
	Reset(ctx context.Context, login string) error
}
