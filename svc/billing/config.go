package billing

import "time"

// Config holds the billing service's own settings. Infrastructure settings
// (Mongo, Redis, HTTP, Paddle) live in their packages' Config structs and are
// loaded separately.
type Config struct {
	// CatalogPath points at the YAML plan catalog. The catalog is loaded
	// once at startup; changing plans requires a restart.
	CatalogPath string `env:"BILLING_CATALOG_PATH" envDefault:"config/plans.yml"`

	// SweepInterval is how often the expiry sweep runs. Access decisions do
	// not depend on the sweep, so a coarse interval is fine.
	SweepInterval time.Duration `env:"BILLING_SWEEP_INTERVAL" envDefault:"1h"`

	// CounterCacheTTL bounds staleness of cached usage counts. Zero
	// disables the cache.
	CounterCacheTTL time.Duration `env:"BILLING_COUNTER_CACHE_TTL" envDefault:"30s"`

	// CheckoutSuccessURL is where Paddle redirects after checkout.
	CheckoutSuccessURL string `env:"BILLING_CHECKOUT_SUCCESS_URL"`
}
