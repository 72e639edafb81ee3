package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tembiapo/tembiapo-backend/internal/config"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/internal/handler"
	"github.com/tembiapo/tembiapo-backend/internal/repository"
	"github.com/tembiapo/tembiapo-backend/internal/service"
	"github.com/tembiapo/tembiapo-backend/internal/utils"
	"github.com/tembiapo/tembiapo-backend/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra   Infrastructure
	config  *config.Config
	router  *gin.Engine
	server  *http.Server
	sweeper *service.TokenSweeper
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
	)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos,
		jwtManager,
		infra.SessionMetrics(),
		cfg.Security.BCryptCost,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	sweeper := service.NewTokenSweeper(
		repos.Token,
		cfg.Session.CleanupInterval.Duration,
		infra.SessionMetrics(),
		infra.Logger(),
	)

	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		Domain: cfg.Session.CookieDomain(),
		Secure: cfg.Env != "development",
	})

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(infra.Logger()))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.Use(handler.ErrorMiddleware(infra.Logger()))
	router.NoRoute(handler.NotFoundHandler)

	setupRoutes(router, routeDeps{
		cfg:            cfg,
		authHandler:    authHandler,
		authService:    authService,
		rateLimiter:    rateLimiter,
		healthChecker:  healthChecker,
		metricsHandler: infra.MetricsHandler(),
		logger:         infra.Logger(),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:   infra,
		config:  cfg,
		router:  router,
		server:  srv,
		sweeper: sweeper,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

type routeDeps struct {
	cfg            *config.Config
	authHandler    *handler.AuthHandler
	authService    service.AuthService
	rateLimiter    *service.RateLimiter
	healthChecker  *HealthChecker
	metricsHandler http.Handler
	logger         *zap.Logger
}

func setupRoutes(router *gin.Engine, d routeDeps) {
	router.GET("/metrics", observability.PrometheusHandler(d.metricsHandler))
	router.GET("/health", d.healthChecker.Handler)

	rateLimit := handler.RateLimitMiddleware(
		d.rateLimiter,
		d.cfg.Security.RateLimitRequests,
		d.cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
		d.logger,
	)
	requireAuth := handler.AuthMiddleware(d.authService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimit, d.authHandler.Register)
			auth.POST("/login", rateLimit, d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.Refresh)
			auth.POST("/logout", d.authHandler.Logout)
			auth.GET("/me",
				requireAuth,
				handler.RoleMiddleware(d.authService, domain.RoleAdmin, domain.RoleProfessional),
				d.authHandler.GetMe,
			)
		}

		admin := api.Group("/admin", requireAuth, handler.RoleMiddleware(d.authService, domain.RoleAdmin))
		{
			admin.GET("/users/:id", d.authHandler.GetUser)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var sweeperDone sync.WaitGroup
	sweeperDone.Add(1)
	go func() {
		defer sweeperDone.Done()
		a.sweeper.Run(sweepCtx)
	}()

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopSweeper()
	sweeperDone.Wait()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// The server drains before the connections it depends on are closed.
	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
