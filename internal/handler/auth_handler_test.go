package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tembiapo/tembiapo-backend/internal/apperror"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/dto"
	"github.com/tembiapo/tembiapo-backend/internal/handler"
)

type AuthHandlerSuite struct {
	suite.Suite
	service *MockAuthService
	router  *gin.Engine
}

func (s *AuthHandlerSuite) SetupTest() {
	s.service = new(MockAuthService)
	h := handler.NewAuthHandler(s.service, handler.CookieConfig{Domain: "tembiapo.com", Secure: true})

	s.router = newRouter()
	auth := s.router.Group("/api/v1/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)
	auth.GET("/me",
		handler.AuthMiddleware(s.service),
		handler.RoleMiddleware(s.service, domain.RoleAdmin, domain.RoleProfessional),
		h.GetMe,
	)
	admin := s.router.Group("/api/v1/admin",
		handler.AuthMiddleware(s.service),
		handler.RoleMiddleware(s.service, domain.RoleAdmin),
	)
	admin.GET("/users/:id", h.GetUser)
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func registerBody() map[string]any {
	return map[string]any{
		"name":            "Alice",
		"lastName":        "Benítez",
		"dni":             "12345678",
		"contactPhone":    "+595981000000",
		"username":        "alice",
		"email":           "alice@x.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	}
}

func (s *AuthHandlerSuite) TestRegisterCreated() {
	s.service.On("Register", mock.Anything, mock.MatchedBy(func(req *dto.RegisterRequest) bool {
		return req.Email == "alice@x.com" && req.DNI == "12345678" && !req.HasProfessionalProfile()
	})).Return(nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/register", registerBody())

	s.Equal(http.StatusCreated, w.Code)
	s.True(env.Success)
	s.Nil(env.Error)
	s.JSONEq(`{"message":"user registered successfully"}`, string(env.Data))
}

func (s *AuthHandlerSuite) TestRegisterRejectsMalformedDNI() {
	body := registerBody()
	body["dni"] = "1234"

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/register", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.False(env.Success)
	s.Equal("BAD_REQUEST", env.Error.Code)
	s.Contains(env.Error.Message, "dni")
	s.service.AssertNotCalled(s.T(), "Register", mock.Anything, mock.Anything)
}

func (s *AuthHandlerSuite) TestRegisterRejectsShortPassword() {
	body := registerBody()
	body["password"] = "abc"

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/register", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Error.Message, "password")
}

func (s *AuthHandlerSuite) TestRegisterRejectsBlankFields() {
	body := registerBody()
	body["username"] = "     "
	body["name"] = "   "

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/register", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", env.Error.Code)
	s.Contains(env.Error.Message, "username must not be blank")
	s.Contains(env.Error.Message, "name must not be blank")
	s.service.AssertNotCalled(s.T(), "Register", mock.Anything, mock.Anything)
}

func (s *AuthHandlerSuite) TestRegisterConflict() {
	s.service.On("Register", mock.Anything, mock.Anything).
		Return(apperror.Conflict("email already registered")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/register", registerBody())

	s.Equal(http.StatusConflict, w.Code)
	s.False(env.Success)
	s.Contains(w.Body.String(), `"data":null`)
	s.Equal("CONFLICT", env.Error.Code)
	s.Equal("email already registered", env.Error.Message)
}

func (s *AuthHandlerSuite) TestLoginSetsCookie() {
	pair := &domain.TokenPair{
		AccessToken:      "access",
		AccessExpiresIn:  900,
		RefreshToken:     "refresh",
		RefreshExpiresIn: 604800,
	}
	s.service.On("Login", mock.Anything, &dto.LoginRequest{Email: "alice@x.com", Password: "secret1"}).
		Return(pair, nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@x.com", "password": "secret1"})

	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
	s.JSONEq(`{"accessToken":"access","refreshToken":"refresh","tokenType":"Bearer","expiresIn":900}`, string(env.Data))

	cookie := findCookie(w, handler.RefreshCookieName)
	s.Require().NotNil(cookie)
	s.Equal("refresh", cookie.Value)
	s.Equal(handler.RefreshCookiePath, cookie.Path)
	s.Equal("tembiapo.com", cookie.Domain)
	s.Equal(604800, cookie.MaxAge)
	s.True(cookie.HttpOnly)
	s.True(cookie.Secure)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)
}

func (s *AuthHandlerSuite) TestLoginUnknownUser() {
	s.service.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperror.NotFound("user not found")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "nobody@x.com", "password": "secret1"})

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", env.Error.Code)
	s.Nil(findCookie(w, handler.RefreshCookieName))
}

func (s *AuthHandlerSuite) TestLoginInternalErrorIsNotLeaked() {
	s.service.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.New("pq: password authentication failed for user tembiapo")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@x.com", "password": "secret1"})

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("INTERNAL_ERROR", env.Error.Code)
	s.Equal("internal server error", env.Error.Message)
	s.NotContains(w.Body.String(), "pq:")
}

func (s *AuthHandlerSuite) TestRefreshReadsCookie() {
	pair := &domain.TokenPair{AccessToken: "a2", RefreshToken: "r2", AccessExpiresIn: 900, RefreshExpiresIn: 60}
	s.service.On("Refresh", mock.Anything, "r1").Return(pair, nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(handler.RefreshCookieName, "r1"))

	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
	cookie := findCookie(w, handler.RefreshCookieName)
	s.Require().NotNil(cookie)
	s.Equal("r2", cookie.Value)
}

func (s *AuthHandlerSuite) TestRefreshWithoutCookie() {
	s.service.On("Refresh", mock.Anything, "").
		Return(nil, apperror.BadRequest("refresh token is required")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/refresh", nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", env.Error.Code)
}

func (s *AuthHandlerSuite) TestRefreshRevokedToken() {
	s.service.On("Refresh", mock.Anything, "old").
		Return(nil, apperror.Unauthorized("invalid refresh token")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/refresh", nil,
		withCookie(handler.RefreshCookieName, "old"))

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", env.Error.Code)
}

func (s *AuthHandlerSuite) TestLogoutClearsCookie() {
	s.service.On("Logout", mock.Anything, "r1").Return(nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/logout", nil,
		withCookie(handler.RefreshCookieName, "r1"))

	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
	cookie := findCookie(w, handler.RefreshCookieName)
	s.Require().NotNil(cookie)
	s.Empty(cookie.Value)
	s.Less(cookie.MaxAge, 0)
}

func (s *AuthHandlerSuite) TestLogoutWithoutCookie() {
	s.service.On("Logout", mock.Anything, "").Return(nil).Once()

	w, _ := doJSON(s.T(), s.router, http.MethodPost, "/api/v1/auth/logout", nil)

	s.Equal(http.StatusOK, w.Code)
}

func (s *AuthHandlerSuite) TestMeRequiresBearer() {
	w, env := doJSON(s.T(), s.router, http.MethodGet, "/api/v1/auth/me", nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", env.Error.Code)
}

func (s *AuthHandlerSuite) TestMeRejectsInvalidToken() {
	s.service.On("ValidateToken", mock.Anything, "bad").
		Return(nil, apperror.Unauthorized("invalid or expired token")).Once()

	w, _ := doJSON(s.T(), s.router, http.MethodGet, "/api/v1/auth/me", nil, withBearer("bad"))

	s.Equal(http.StatusUnauthorized, w.Code)
	s.service.AssertNotCalled(s.T(), "AuthorizeRole", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthHandlerSuite) TestMeReturnsProfile() {
	s.service.On("ValidateToken", mock.Anything, "good").
		Return(&domain.TokenClaims{UserID: "u-1", Email: "alice@x.com"}, nil).Once()
	s.service.On("AuthorizeRole", mock.Anything, "u-1", []domain.RoleName{domain.RoleAdmin, domain.RoleProfessional}).
		Return(&domain.User{ID: "u-1"}, nil).Once()
	s.service.On("GetProfile", mock.Anything, "u-1").
		Return(&dto.ProfileResponse{ID: "u-1", Username: "alice", Role: "PROFESSIONAL"}, nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodGet, "/api/v1/auth/me", nil, withBearer("good"))

	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
	s.Contains(string(env.Data), `"username":"alice"`)
}

func (s *AuthHandlerSuite) TestAdminRouteForbiddenForProfessional() {
	s.service.On("ValidateToken", mock.Anything, "good").
		Return(&domain.TokenClaims{UserID: "u-1", Email: "alice@x.com"}, nil).Once()
	s.service.On("AuthorizeRole", mock.Anything, "u-1", []domain.RoleName{domain.RoleAdmin}).
		Return(nil, apperror.Forbidden("access denied")).Once()

	w, env := doJSON(s.T(), s.router, http.MethodGet,
		"/api/v1/admin/users/0b8e3f4a-3c1e-4a55-9c57-5b7b0e5a0d11", nil, withBearer("good"))

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", env.Error.Code)
	s.service.AssertNotCalled(s.T(), "GetProfile", mock.Anything, mock.Anything)
}

func (s *AuthHandlerSuite) TestAdminRouteRejectsMalformedID() {
	s.service.On("ValidateToken", mock.Anything, "admin").
		Return(&domain.TokenClaims{UserID: "a-1", Email: "admin@x.com"}, nil).Once()
	s.service.On("AuthorizeRole", mock.Anything, "a-1", []domain.RoleName{domain.RoleAdmin}).
		Return(&domain.User{ID: "a-1"}, nil).Once()

	w, env := doJSON(s.T(), s.router, http.MethodGet, "/api/v1/admin/users/not-a-uuid", nil, withBearer("admin"))

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", env.Error.Code)
}

func (s *AuthHandlerSuite) TestUnknownRoute() {
	w, env := doJSON(s.T(), s.router, http.MethodGet, "/nope", nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.False(env.Success)
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}
