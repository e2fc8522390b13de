// internal/domain/cart/janitor.go
package cart

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionSweeper deletes the cart rows of a session that were last changed
// before cutoff. Rows written after cutoff are kept.
type SessionSweeper interface {
	ClearSession(ctx context.Context, sessionID string, cutoff time.Time) (int64, error)
}

// IdleSessions lists and forgets sessions by last activity
type IdleSessions interface {
	Stale(ctx context.Context, cutoff time.Time, limit int64) ([]string, error)
	// Forget drops sessions whose last activity is still before cutoff
	Forget(ctx context.Context, cutoff time.Time, sessionIDs ...string) error
}

const janitorBatchSize = 500

// Janitor removes the carts of sessions that have been idle longer than ttl
type Janitor struct {
	repo     SessionSweeper
	sessions IdleSessions
	ttl      time.Duration
	interval time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

// NewJanitor creates a new cart janitor
func NewJanitor(repo SessionSweeper, sessions IdleSessions, ttl, interval time.Duration, logger *logrus.Logger) *Janitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Janitor{
		repo:     repo,
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := j.Sweep(ctx)
			if err != nil {
				j.logger.WithError(err).Error("cart janitor sweep failed")
				continue
			}
			if removed > 0 {
				j.logger.WithField("sessions", removed).Info("expired idle cart sessions")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep clears one batch of idle sessions and returns how many were cleared
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)

	stale, err := j.sessions.Stale(ctx, cutoff, janitorBatchSize)
	if err != nil {
		return 0, err
	}

	cleared := make([]string, 0, len(stale))
	for _, sessionID := range stale {
		if _, err := j.repo.ClearSession(ctx, sessionID, cutoff); err != nil {
			j.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to clear idle cart session")
			continue
		}
		cleared = append(cleared, sessionID)
	}

	if len(cleared) == 0 {
		return 0, nil
	}
	if err := j.sessions.Forget(ctx, cutoff, cleared...); err != nil {
		return len(cleared), err
	}
	return len(cleared), nil
}
