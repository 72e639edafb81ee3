package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
	"github.com/tembiapo/tembiapo-backend/internal/repository"
	"github.com/tembiapo/tembiapo-backend/internal/utils"
	"github.com/tembiapo/tembiapo-backend/pkg/observability"
)

const (
	msgEmailTaken       = "email already registered"
	msgUsernameTaken    = "username already taken"
	msgDNITaken         = "dni already registered"
	msgPasswordMismatch = "passwords do not match"
	msgUsernameTooShort = "username must be at least 3 characters"
	msgInvalidCreds     = "invalid credentials"
	msgInvalidRefresh   = "invalid refresh token"
)

// authService implements AuthService interface
type authService struct {
	userRepo           repository.UserRepository
	roleRepo           repository.RoleRepository
	professionalRepo   repository.ProfessionalRepository
	tokenRepo          repository.TokenRepository
	jwtManager         *utils.JWTManager
	metrics            *observability.SessionMetrics
	bcryptCost         int
	refreshTokenExpiry time.Duration
	now                func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	repos *repository.Repositories,
	jwtManager *utils.JWTManager,
	metrics *observability.SessionMetrics,
	bcryptCost int,
	refreshTokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:           repos.User,
		roleRepo:           repos.Role,
		professionalRepo:   repos.Professional,
		tokenRepo:          repos.Token,
		jwtManager:         jwtManager,
		metrics:            metrics,
		bcryptCost:         bcryptCost,
		refreshTokenExpiry: refreshTokenExpiry,
		now:                time.Now,
	}
}

// Register creates the person, the user and the optional professional
// profile. Preconditions are checked in order and the first violation wins.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) error {
	email := utils.SanitizeEmail(req.Email)
	username := utils.SanitizeUsername(req.Username)

	if !utils.ValidUsername(username) {
		return apperror.BadRequest(msgUsernameTooShort)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return apperror.Conflict(msgEmailTaken)
	}

	exists, err = s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return apperror.Conflict(msgUsernameTaken)
	}

	exists, err = s.userRepo.ExistsByDNI(ctx, req.DNI)
	if err != nil {
		return fmt.Errorf("failed to check dni: %w", err)
	}
	if exists {
		return apperror.Conflict(msgDNITaken)
	}

	if req.Password != req.ConfirmPassword {
		return apperror.Conflict(msgPasswordMismatch)
	}

	if len(req.Password) > utils.MaxPasswordBytes {
		return apperror.BadRequest("password is too long")
	}

	role, err := s.roleRepo.GetByName(ctx, domain.RoleProfessional)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Wrap(apperror.KindNotFound, "role not found", err)
		}
		return fmt.Errorf("failed to get role: %w", err)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return err
	}

	person := &domain.Person{
		Name:         strings.TrimSpace(req.Name),
		LastName:     strings.TrimSpace(req.LastName),
		DNI:          req.DNI,
		ContactPhone: strings.TrimSpace(req.ContactPhone),
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: &passwordHash,
		RoleID:       role.ID,
	}

	var professional *domain.Professional
	if req.HasProfessionalProfile() {
		professional = &domain.Professional{
			Description:     req.Description,
			YearsExperience: req.YearsExperience,
		}
	}

	if err := s.userRepo.CreateWithPerson(ctx, person, user, professional); err != nil {
		return registrationError(err)
	}

	return nil
}

// registrationError maps a unique violation that slipped past the
// pre-checks to the same conflict the pre-check reports.
func registrationError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperror.Wrap(apperror.KindConflict, msgEmailTaken, err)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperror.Wrap(apperror.KindConflict, msgUsernameTaken, err)
	case errors.Is(err, repository.ErrDuplicateDNI):
		return apperror.Wrap(apperror.KindConflict, msgDNITaken, err)
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

// Login verifies credentials and starts a new session, revoking any other
// refresh token the user still holds.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(req.Password)
			s.metrics.RecordLogin(ctx, observability.OutcomeFailure)
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.VerifyPassword(user.PasswordHash, req.Password) {
		s.metrics.RecordLogin(ctx, observability.OutcomeFailure)
		return nil, apperror.Unauthorized(msgInvalidCreds)
	}

	pair, err := s.issueTokens(user, func(token *domain.RefreshToken) error {
		return s.tokenRepo.Replace(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(ctx, observability.OutcomeSuccess)
	return pair, nil
}

// Refresh exchanges an active refresh token for a new pair. The presented
// token and every other active token of the user are revoked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.BadRequest("refresh token is required")
	}

	pair, err := s.refresh(ctx, refreshToken)
	if err != nil {
		s.metrics.RecordRefresh(ctx, observability.OutcomeFailure)
		return nil, err
	}

	s.metrics.RecordRefresh(ctx, observability.OutcomeSuccess)
	return pair, nil
}

func (s *authService) refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	tokenHash := utils.HashToken(refreshToken)

	stored, err := s.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidRefresh)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if !stored.IsActive(s.now()) {
		return nil, apperror.Unauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized(msgInvalidRefresh)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsDeleted() {
		return nil, apperror.Unauthorized(msgInvalidRefresh)
	}

	return s.issueTokens(user, func(next *domain.RefreshToken) error {
		err := s.tokenRepo.Rotate(ctx, tokenHash, next)
		if errors.Is(err, repository.ErrTokenInactive) || errors.Is(err, repository.ErrNotFound) {
			return apperror.Wrap(apperror.KindUnauthorized, msgInvalidRefresh, err)
		}
		return err
	})
}

// Logout revokes the presented refresh token. Missing, unknown and already
// revoked tokens are not errors.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.tokenRepo.RevokeByTokenHash(ctx, utils.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// GetProfile returns the public profile of a non-deleted user
func (s *authService) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if user.IsDeleted() {
		return nil, apperror.NotFound("user not found")
	}

	professional, err := s.professionalRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}

	return toProfileResponse(user, professional), nil
}

// ValidateToken validates an access token
func (s *authService) ValidateToken(_ context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, "invalid or expired token", err)
	}

	return claims, nil
}

// AuthorizeRole re-reads the user and its role on every call, so role
// changes and soft-deletes apply to tokens already issued.
func (s *authService) AuthorizeRole(ctx context.Context, userID string, roles ...domain.RoleName) (*domain.User, error) {
	user, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Forbidden("access denied")
		}
		return nil, fmt.Errorf("failed to load user role: %w", err)
	}

	if user.IsDeleted() || !user.HasRole(roles...) {
		return nil, apperror.Forbidden("access denied")
	}

	return user, nil
}
