package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values recorded on session counters
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SessionMetrics holds the counters of the session lifecycle. A nil
// *SessionMetrics records nothing.
type SessionMetrics struct {
	logins    metric.Int64Counter
	refreshes metric.Int64Counter
	swept     metric.Int64Counter
}

// NewSessionMetrics registers the session counters on provider
func NewSessionMetrics(provider metric.MeterProvider) (*SessionMetrics, error) {
	meter := provider.Meter("tembiapo/session")

	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	refreshes, err := meter.Int64Counter("auth.refreshes",
		metric.WithDescription("Refresh token rotations by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create refreshes counter: %w", err)
	}

	swept, err := meter.Int64Counter("auth.refresh_tokens_swept",
		metric.WithDescription("Revoked or expired refresh tokens deleted by the sweeper"))
	if err != nil {
		return nil, fmt.Errorf("failed to create swept counter: %w", err)
	}

	return &SessionMetrics{
		logins:    logins,
		refreshes: refreshes,
		swept:     swept,
	}, nil
}

func (m *SessionMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *SessionMetrics) RecordRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *SessionMetrics) RecordSwept(ctx context.Context, deleted int64) {
	if m == nil {
		return
	}
	m.swept.Add(ctx, deleted)
}
