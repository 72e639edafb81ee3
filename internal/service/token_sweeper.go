package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tembiapo/tembiapo-backend/internal/repository"
	"github.com/tembiapo/tembiapo-backend/pkg/observability"
	"go.uber.org/zap"
)

// TokenSweeper periodically hard-deletes revoked and expired refresh tokens.
// A failed sweep is logged and retried on the next tick.
type TokenSweeper struct {
	tokenRepo repository.TokenRepository
	interval  time.Duration
	metrics   *observability.SessionMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewTokenSweeper creates a sweeper that runs every interval
func NewTokenSweeper(
	tokenRepo repository.TokenRepository,
	interval time.Duration,
	metrics *observability.SessionMetrics,
	logger *zap.Logger,
) *TokenSweeper {
	return &TokenSweeper{
		tokenRepo: tokenRepo,
		interval:  interval,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SweepOnce deletes every revoked or expired token and returns the count
func (s *TokenSweeper) SweepOnce(ctx context.Context) (int64, error) {
	deleted, err := s.tokenRepo.DeleteRevokedOrExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep refresh tokens: %w", err)
	}

	s.metrics.RecordSwept(ctx, deleted)
	return deleted, nil
}

// Run sweeps on every tick until ctx is cancelled
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Token sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Token sweeper stopped")
			return
		case <-ticker.C:
			deleted, err := s.SweepOnce(ctx)
			if err != nil {
				s.logger.Error("Token sweep failed", zap.Error(err))
				continue
			}
			s.logger.Info("Token sweep finished", zap.Int64("deleted", deleted))
		}
	}
}
