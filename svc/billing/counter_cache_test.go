package billing_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
	"github.com/visitdesk/visitdesk/svc/billing"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func countingCounter(n *atomic.Int64, value int64) subscription.CounterFunc {
	return func(ctx context.Context, tenantID uuid.UUID, win *subscription.Window) (int64, error) {
		n.Add(1)
		return value, nil
	}
}

func TestCachedCounter(t *testing.T) {
	t.Parallel()

	win := &subscription.Window{
		Start: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.April, 14, 23, 59, 59, 0, time.UTC),
	}

	t.Run("caches counts within the ttl", func(t *testing.T) {
		t.Parallel()

		_, client := newTestRedis(t)
		var calls atomic.Int64
		counter := billing.CachedCounter(client, plan.ResourceAppointments, time.Minute, countingCounter(&calls, 7))

		tenantID := uuid.New()
		for range 3 {
			n, err := counter(context.Background(), tenantID, win)
			require.NoError(t, err)
			assert.Equal(t, int64(7), n)
		}
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("recounts after expiry", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		var calls atomic.Int64
		counter := billing.CachedCounter(client, plan.ResourceAppointments, time.Minute, countingCounter(&calls, 7))

		tenantID := uuid.New()
		_, err := counter(context.Background(), tenantID, win)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		_, err = counter(context.Background(), tenantID, win)
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("window rollover changes the key", func(t *testing.T) {
		t.Parallel()

		_, client := newTestRedis(t)
		var calls atomic.Int64
		counter := billing.CachedCounter(client, plan.ResourceAppointments, time.Minute, countingCounter(&calls, 7))

		tenantID := uuid.New()
		_, err := counter(context.Background(), tenantID, win)
		require.NoError(t, err)

		next := &subscription.Window{
			Start: time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.May, 14, 23, 59, 59, 0, time.UTC),
		}
		_, err = counter(context.Background(), tenantID, next)
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load(), "new window must not reuse the old count")
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		t.Parallel()

		_, client := newTestRedis(t)
		var calls atomic.Int64
		counter := billing.CachedCounter(client, plan.ResourceEmployees, time.Minute, countingCounter(&calls, 3))

		_, err := counter(context.Background(), uuid.New(), nil)
		require.NoError(t, err)
		_, err = counter(context.Background(), uuid.New(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("fails open when redis is down", func(t *testing.T) {
		t.Parallel()

		mr, client := newTestRedis(t)
		mr.Close()

		var calls atomic.Int64
		counter := billing.CachedCounter(client, plan.ResourceAppointments, time.Minute, countingCounter(&calls, 7))

		n, err := counter(context.Background(), uuid.New(), win)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("disabled without client or ttl", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		next := countingCounter(&calls, 7)

		counter := billing.CachedCounter(nil, plan.ResourceAppointments, time.Minute, next)
		_, err := counter(context.Background(), uuid.New(), win)
		require.NoError(t, err)

		_, client := newTestRedis(t)
		counter = billing.CachedCounter(client, plan.ResourceAppointments, 0, next)
		_, err = counter(context.Background(), uuid.New(), win)
		require.NoError(t, err)

		assert.Equal(t, int64(2), calls.Load())
	})
}
