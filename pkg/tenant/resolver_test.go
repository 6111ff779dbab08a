package tenant_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitdesk/visitdesk/pkg/tenant"
)

type stubUserStore struct {
	tenantID   uuid.UUID
	isEmployee bool
	err        error
	calls      atomic.Int64
}

func (s *stubUserStore) OwnerTenantID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	s.calls.Add(1)
	if s.err != nil {
		return uuid.Nil, false, s.err
	}
	if s.tenantID == uuid.Nil {
		return userID, false, nil
	}
	return s.tenantID, s.isEmployee, nil
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("owner resolves to self", func(t *testing.T) {
		t.Parallel()

		store := &stubUserStore{}
		r := tenant.NewResolver(store, tenant.WithCache(tenant.NewNoOpCache()))

		userID := uuid.New()
		id, err := r.Resolve(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, userID, id.TenantID)
		assert.False(t, id.IsEmployee)
	})

	t.Run("employee resolves to owning tenant", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		store := &stubUserStore{tenantID: ownerID, isEmployee: true}
		r := tenant.NewResolver(store, tenant.WithCache(tenant.NewNoOpCache()))

		id, err := r.Resolve(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, ownerID, id.TenantID)
		assert.True(t, id.IsEmployee)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		store := &stubUserStore{err: tenant.ErrUserNotFound}
		r := tenant.NewResolver(store)

		_, err := r.Resolve(context.Background(), uuid.New())
		require.ErrorIs(t, err, tenant.ErrUserNotFound)
	})

	t.Run("store failure wrapped", func(t *testing.T) {
		t.Parallel()

		store := &stubUserStore{err: errors.New("connection reset")}
		r := tenant.NewResolver(store)

		_, err := r.Resolve(context.Background(), uuid.New())
		require.ErrorIs(t, err, tenant.ErrLookupFailed)
	})

	t.Run("caches resolved identity", func(t *testing.T) {
		t.Parallel()

		ownerID := uuid.New()
		store := &stubUserStore{tenantID: ownerID, isEmployee: true}
		r := tenant.NewResolver(store)

		userID := uuid.New()
		for range 3 {
			id, err := r.Resolve(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, ownerID, id.TenantID)
		}
		assert.Equal(t, int64(1), store.calls.Load())
	})

	t.Run("invalidate forces refetch", func(t *testing.T) {
		t.Parallel()

		store := &stubUserStore{tenantID: uuid.New(), isEmployee: true}
		r := tenant.NewResolver(store)

		userID := uuid.New()
		_, err := r.Resolve(context.Background(), userID)
		require.NoError(t, err)

		r.Invalidate(context.Background(), userID)

		_, err = r.Resolve(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), store.calls.Load())
	})
}

func TestNewResolver_NilStore(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		tenant.NewResolver(nil)
	})
}

func TestInMemoryCache(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		id := tenant.Identity{TenantID: uuid.New(), IsEmployee: true}
		c.Set(context.Background(), "u1", id, time.Minute)

		got, ok := c.Get(context.Background(), "u1")
		require.True(t, ok)
		assert.Equal(t, id, got)
	})

	t.Run("expired entry dropped", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		c.Set(context.Background(), "u1", tenant.Identity{TenantID: uuid.New()}, -time.Second)

		_, ok := c.Get(context.Background(), "u1")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCache()
		c.Set(context.Background(), "u1", tenant.Identity{TenantID: uuid.New()}, time.Minute)
		c.Delete(context.Background(), "u1")

		_, ok := c.Get(context.Background(), "u1")
		assert.False(t, ok)
	})

	t.Run("size limit enforced", func(t *testing.T) {
		t.Parallel()

		c := tenant.NewInMemoryCacheWithSize(2)
		c.Set(context.Background(), "a", tenant.Identity{}, time.Minute)
		c.Set(context.Background(), "b", tenant.Identity{}, time.Minute)
		c.Set(context.Background(), "c", tenant.Identity{}, time.Minute)

		found := 0
		for _, k := range []string{"a", "b", "c"} {
			if _, ok := c.Get(context.Background(), k); ok {
				found++
			}
		}
		assert.LessOrEqual(t, found, 2)
	})
}
