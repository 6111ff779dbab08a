package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// UserStore looks up user accounts for identity resolution.
type UserStore interface {
	// OwnerTenantID returns the tenant the user belongs to. For account
	// owners this is the user's own id with isEmployee false; for employees
	// it is the owning tenant's id with isEmployee true. Returns
	// ErrUserNotFound when no such user exists.
	OwnerTenantID(ctx context.Context, userID uuid.UUID) (tenantID uuid.UUID, isEmployee bool, err error)
}

// Resolver maps an acting user to the tenant whose subscription and quotas
// apply to them.
type Resolver struct {
	store UserStore
	cache Cache
	ttl   time.Duration
}

// DefaultCacheTTL bounds how long a stale owner mapping can be served after
// an employee moves between tenants.
const DefaultCacheTTL = 5 * time.Minute

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithCacheTTL sets how long resolved identities are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewResolver creates a resolver backed by the given user store.
// Panics if store is nil.
func NewResolver(store UserStore, opts ...Option) *Resolver {
	if store == nil {
		panic("tenant: user store is required")
	}
	r := &Resolver{
		store: store,
		cache: NewInMemoryCache(),
		ttl:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the identity for the given user id.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (Identity, error) {
	key := userID.String()
	if id, ok := r.cache.Get(ctx, key); ok {
		return id, nil
	}

	tenantID, isEmployee, err := r.store.OwnerTenantID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, err
		}
		return Identity{}, errors.Join(ErrLookupFailed, err)
	}

	id := Identity{TenantID: tenantID, IsEmployee: isEmployee}
	r.cache.Set(ctx, key, id, r.ttl)
	return id, nil
}

// Invalidate drops the cached identity for a user, forcing the next Resolve
// to hit the store. Call it when a user changes tenants.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	r.cache.Delete(ctx, userID.String())
}
