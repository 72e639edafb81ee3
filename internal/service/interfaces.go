package service

import (
	"context"

	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
)

// AuthService defines methods for session operations. Client errors are
// returned as *apperror.Error; anything else is an internal failure.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) error
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	// AuthorizeRole loads the user with its role and checks it against roles
	AuthorizeRole(ctx context.Context, userID string, roles ...domain.RoleName) (*domain.User, error)
}
