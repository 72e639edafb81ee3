package service

import (
	"fmt"
	"time"

	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
	"github.com/tembiapo/tembiapo-backend/internal/utils"
)

// issueTokens mints an access token and an opaque refresh token for user and
// hands the refresh token row to persist. The plain refresh value is only
// returned, never stored.
func (s *authService) issueTokens(user *domain.User, persist func(*domain.RefreshToken) error) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	plain, hash, err := utils.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := s.now()
	refreshToken := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.refreshTokenExpiry),
		CreatedAt: now,
	}

	if err := persist(refreshToken); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresIn:  s.jwtManager.GetAccessTokenExpiry(),
		RefreshToken:     plain,
		RefreshExpiresIn: int(s.refreshTokenExpiry.Seconds()),
	}, nil
}

func toProfileResponse(user *domain.User, professional *domain.Professional) *dto.ProfileResponse {
	response := &dto.ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		IsOAuth:   user.IsOAuth,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}

	if user.Role != nil {
		response.Role = string(user.Role.Name)
	}

	if user.Person != nil {
		response.Person = dto.PersonResponse{
			Name:         user.Person.Name,
			LastName:     user.Person.LastName,
			DNI:          user.Person.DNI,
			ContactPhone: user.Person.ContactPhone,
			IsVerified:   user.Person.IsVerified,
		}
	}

	if professional != nil {
		response.Professional = &dto.ProfessionalResponse{
			Description:     professional.Description,
			YearsExperience: professional.YearsExperience,
		}
	}

	return response
}
