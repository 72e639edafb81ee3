package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
	"github.com/tembiapo/tembiapo-backend/internal/service"
)

const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/api/v1/auth"
)

// CookieConfig scopes the refresh token cookie
type CookieConfig struct {
	Domain string
	Secure bool
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, value, maxAge, RefreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
}

func tokenResponse(pair *domain.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.AccessExpiresIn,
	}
}

// Register handles user registration
// @Summary Register a new professional
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Failure 409 {object} dto.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	if err := h.authService.Register(c.Request.Context(), &req); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.OK(dto.MessageResponse{
		Message: "user registered successfully",
	}))
}

// Login handles user login
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Failure 404 {object} dto.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresIn)
	c.JSON(http.StatusOK, dto.OK(tokenResponse(pair)))
}

// Refresh rotates the refresh token carried by the cookie
// @Summary Refresh tokens
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken, pair.RefreshExpiresIn)
	c.JSON(http.StatusOK, dto.OK(tokenResponse(pair)))
}

// Logout revokes the refresh token carried by the cookie, if any
// @Summary Logout user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		_ = c.Error(err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, dto.OK(dto.MessageResponse{
		Message: "logged out successfully",
	}))
}

// GetMe returns the profile of the authenticated user
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.Envelope
// @Failure 403 {object} dto.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	profile, err := h.authService.GetProfile(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(profile))
}

// GetUser returns the profile of any user
// @Summary Get user profile
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Failure 403 {object} dto.Envelope
// @Failure 404 {object} dto.Envelope
// @Router /admin/users/{id} [get]
func (h *AuthHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = c.Error(apperror.Wrap(apperror.KindBadRequest, "invalid user id", err))
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(profile))
}
