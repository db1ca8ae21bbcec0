package auth

import (
	"context"
	"time"

	"conveycrm/internal/domain"
)

// UserRepository — only the methods the auth service uses
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// TokenRevoker stores the ids of logged-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt, now time.Time) error
}

type TokenIssuer interface {
	GenerateToken(userID, email, role string) (string, error)
}
