package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// CachedCounter decorates a usage counter with a short-TTL Redis cache.
// Counters run on every creation attempt, so even a 30s TTL removes most of
// the CountDocuments load. The cache fails open: on any Redis error the
// underlying counter is consulted directly.
//
// A stale cache can let a tenant briefly exceed its limit by the writes that
// happened inside the TTL. That is the same tolerance the unsynchronized
// check-then-create flow already has.
func CachedCounter(rdb redis.UniversalClient, res plan.Resource, ttl time.Duration, next subscription.CounterFunc) subscription.CounterFunc {
	if rdb == nil || ttl <= 0 {
		return next
	}

	return func(ctx context.Context, tenantID uuid.UUID, win *subscription.Window) (int64, error) {
		key := counterKey(res, tenantID, win)

		if raw, err := rdb.Get(ctx, key).Result(); err == nil {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return n, nil
			}
		}

		n, err := next(ctx, tenantID, win)
		if err != nil {
			return 0, err
		}

		// Best effort: a failed SET only costs the next call a recount.
		_ = rdb.Set(ctx, key, strconv.FormatInt(n, 10), ttl).Err()
		return n, nil
	}
}

// counterKey scopes cached counts by window start so a window rollover
// naturally invalidates the previous window's entry.
func counterKey(res plan.Resource, tenantID uuid.UUID, win *subscription.Window) string {
	if win == nil {
		return fmt.Sprintf("quota:%s:%s", res, tenantID)
	}
	return fmt.Sprintf("quota:%s:%s:%d", res, tenantID, win.Start.Unix())
}
