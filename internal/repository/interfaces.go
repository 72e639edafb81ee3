package repository

import (
	"context"
	"time"

	"github.com/tembiapo/tembiapo-backend/internal/domain"
)

// UserRepository defines methods for user and person operations
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByDNI(ctx context.Context, dni string) (bool, error)
	// CreateWithPerson inserts the person, the user and, when non-nil, the
	// professional profile in a single transaction.
	CreateWithPerson(ctx context.Context, person *domain.Person, user *domain.User, professional *domain.Professional) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetProfile loads the user joined with its role and person
	GetProfile(ctx context.Context, id string) (*domain.User, error)
}

// RoleRepository defines methods for the seeded roles table
type RoleRepository interface {
	GetByName(ctx context.Context, name domain.RoleName) (*domain.Role, error)
}

// ProfessionalRepository defines methods for professional profiles
type ProfessionalRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Professional, error)
}

// TokenRepository defines methods for refresh token operations
type TokenRepository interface {
	// Replace revokes every active token of token.UserID and inserts token,
	// atomically.
	Replace(ctx context.Context, token *domain.RefreshToken) error
	// Rotate revokes the token identified by oldHash, provided it is still
	// active, revokes any other active token of the same user and inserts next.
	Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteRevokedOrExpired hard-deletes revoked rows and rows expired at now
	DeleteRevokedOrExpired(ctx context.Context, now time.Time) (int64, error)
}
