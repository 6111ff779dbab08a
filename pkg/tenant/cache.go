package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache stores resolved identities keyed by user id. Resolution sits on the
// hot path of every quota check, so lookups should avoid a storage round
// trip when possible.
type Cache interface {
	// Get retrieves an identity from cache by key.
	Get(ctx context.Context, key string) (Identity, bool)

	// Set stores an identity in cache with the given TTL.
	Set(ctx context.Context, key string, id Identity, ttl time.Duration)

	// Delete removes an identity from cache.
	Delete(ctx context.Context, key string)
}

// inMemoryCache is the default cache implementation. Expired entries are
// dropped lazily on read and swept when the map grows past maxSize.
type inMemoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	maxSize int
}

type cacheItem struct {
	identity  Identity
	expiresAt time.Time
}

// DefaultCacheSize is the default maximum number of cached identities.
const DefaultCacheSize = 1000

// NewInMemoryCache creates an in-memory identity cache.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates an in-memory cache with the given size limit.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &inMemoryCache{
		items:   make(map[string]cacheItem),
		maxSize: maxSize,
	}
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return Identity{}, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		return Identity{}, false
	}
	return item.identity, true
}

func (c *inMemoryCache) Set(ctx context.Context, key string, id Identity, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxSize {
		c.sweepLocked()
		// Still full after the sweep: drop an arbitrary entry rather than grow.
		if len(c.items) >= c.maxSize {
			for k := range c.items {
				delete(c.items, k)
				break
			}
		}
	}

	c.items[key] = cacheItem{identity: id, expiresAt: time.Now().Add(ttl)}
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *inMemoryCache) sweepLocked() {
	now := time.Now()
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
		}
	}
}

// noOpCache disables caching. Useful in tests.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache { return noOpCache{} }

func (noOpCache) Get(ctx context.Context, key string) (Identity, bool) { return Identity{}, false }

func (noOpCache) Set(ctx context.Context, key string, id Identity, _ time.Duration) {}

func (noOpCache) Delete(ctx context.Context, key string) {}
