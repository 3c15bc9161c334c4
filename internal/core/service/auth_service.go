package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelfvoice/portal/internal/core/domain"
	"github.com/shelfvoice/portal/internal/core/ports"
)

// AuthService implements the reference login collaborator: account
// registration, password login and token issuing.
type AuthService struct {
	repo      ports.AuthRepository
	limiter   ports.AttemptLimiter
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, limiter ports.AttemptLimiter, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, limiter: limiter, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, password, email, name, role, createdBy string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role == "" {
		role = domain.DefaultRole
	}
	if !domain.IsKnownRole(role) {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	rec := &ports.UserRecord{
		Username:     username,
		PasswordHash: string(hash),
		User: domain.User{
			Email:       email,
			Name:        name,
			Role:        role,
			Permissions: RolePermissions(role),
			CreatedBy:   createdBy,
		},
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return created.User.Clone(), nil
}

func (s *AuthService) Login(ctx context.Context, login, password string) (*ports.LoginGrant, error) {
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	blocked, err := s.limiter.Blocked(ctx, login)
	if err != nil {
		s.log.Warn().Err(err).Str("login", login).Msg("attempt limiter unavailable, continuing")
	} else if blocked {
		return nil, domain.ErrTooManyAttempts
	}

	rec, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, login)
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		s.recordFailure(ctx, login)
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, login); err != nil {
		s.log.Warn().Err(err).Str("login", login).Msg("failed to reset login attempts")
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, err := s.generateToken(&rec.User, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("login: sign token: %w", err)
	}

	return &ports.LoginGrant{Token: token, ExpiresAt: expiresAt, User: *rec.User.Clone()}, nil
}

func (s *AuthService) Me(ctx context.Context, id string) (*domain.User, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.User.Clone(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0, len(recs))
	for _, r := range recs {
		users = append(users, *r.User.Clone())
	}
	return users, nil
}

func (s *AuthService) recordFailure(ctx context.Context, login string) {
	if err := s.limiter.RecordFailure(ctx, login); err != nil {
		s.log.Warn().Err(err).Str("login", login).Msg("failed to record login attempt")
	}
}

func (s *AuthService) generateToken(user *domain.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":         user.ID,
		"email":       user.Email,
		"role":        user.Role,
		"permissions": user.Permissions,
		"exp":         expiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
