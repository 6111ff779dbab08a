package billing_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/svc/billing"
)

type countingService struct {
	stubService
	sweeps atomic.Int64
}

func (s *countingService) ExpireLapsed(ctx context.Context) (int64, error) {
	s.sweeps.Add(1)
	return 2, nil
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	svc := &countingService{}
	sw := billing.NewSweeper(svc, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := sw.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// One immediate sweep plus at least one tick.
	assert.GreaterOrEqual(t, svc.sweeps.Load(), int64(2))
}

func TestNewSweeper_NilService(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		billing.NewSweeper(nil, time.Minute, nil)
	})
}
