package subscription

import (
	"log/slog"
	"time"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// Option configures an engine instance.
type Option func(*engine)

// WithCounter registers a usage counter for a resource type. Panics if a
// counter for the same resource has already been registered to prevent
// accidental overwrites.
func WithCounter(res plan.Resource, fn CounterFunc) Option {
	return func(e *engine) {
		if fn == nil {
			return
		}
		if _, exists := e.counters[res]; exists {
			panic("subscription: counter for resource " + string(res) + " already registered")
		}
		e.counters[res] = fn
	}
}

// WithCallerResolver installs the owning-tenant resolver used by the limit
// gate. The default resolver treats every caller as its own tenant.
func WithCallerResolver(r CallerResolver) Option {
	return func(e *engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides the engine's time source. Used by tests that need
// deterministic windows and segment boundaries.
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}
