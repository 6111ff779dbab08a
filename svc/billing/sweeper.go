package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/visitdesk/visitdesk/pkg/logger"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// Sweeper periodically flips the active flag on lapsed subscription
// segments. The sweep is reporting hygiene, not an access control: the
// applicable-record query already excludes ended segments, so a missed or
// late sweep never grants access.
type Sweeper struct {
	svc      subscription.Service
	interval time.Duration
	log      *slog.Logger
}

// NewSweeper creates a sweeper. Panics if svc is nil; a non-positive
// interval defaults to one hour.
func NewSweeper(svc subscription.Service, interval time.Duration, log *slog.Logger) *Sweeper {
	if svc == nil {
		panic("billing: subscription service is required")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, sweeping once immediately and then on
// every interval tick. Sweep failures are logged and retried next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.ExpireLapsed(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "expiry sweep failed",
			logger.Component("billing"),
			logger.Error(err))
		return
	}
	if n > 0 {
		s.log.InfoContext(ctx, "expiry sweep completed",
			logger.Component("billing"),
			logger.Count(n))
	}
}
