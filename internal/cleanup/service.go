// Package cleanup deletes unverified inscriptions past their age threshold.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the period between automatic cleanup runs.
const DefaultInterval = 5 * time.Minute

// Store invokes the backend cleanup procedure.
type Store interface {
	CleanupUnverified(ctx context.Context) (int, error)
}

// Service runs cleanup on a fixed timer and exposes a manual trigger. The
// automatic run never propagates failures; the manual variant does.
type Service struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger
}

// NewService creates a cleanup service. A non-positive interval falls back to
// DefaultInterval.
func NewService(store Store, interval time.Duration, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, interval: interval, logger: logger}
}

// Cleanup invokes the backend cleanup procedure once and returns the number
// of deleted rows. A negative count signals a backend-side error and is
// raised as such, never treated as zero.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	n, err := s.store.CleanupUnverified(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup unverified registrations: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("cleanup unverified registrations: backend returned negative count %d", n)
	}
	return n, nil
}

// Run executes cleanup immediately, then on every tick until ctx is done.
// Failures are logged and swallowed so the loop survives transient backend
// errors.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup service stopping")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	n, err := s.Cleanup(ctx)
	if err != nil {
		s.logger.Error("cleanup run failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("deleted unverified registrations", zap.Int("count", n))
	} else {
		s.logger.Debug("no unverified registrations to clean up")
	}
}
