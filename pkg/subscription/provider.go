package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// EventKind is the normalized payment event type the engine acts on.
// Provider implementations map their specific webhook events to these kinds.
type EventKind string

const (
	// EventSetupVerified is a successful card-verification event; it
	// triggers trial activation for tenants without a subscription.
	EventSetupVerified EventKind = "setup_verified"

	// EventPaymentSucceeded is a completed payment for a plan or add-on.
	EventPaymentSucceeded EventKind = "payment_succeeded"

	// EventUnknown marks provider events the engine intentionally ignores.
	// They are logged and acknowledged so the gateway does not retry them.
	EventUnknown EventKind = "unknown"
)

// PaymentEvent is a normalized payment-gateway event. The gateway delivers
// at-least-once with possible duplicates; PaymentID is the idempotency key
// that makes the engine's side effects exactly-once.
type PaymentEvent struct {
	Kind          EventKind
	ProviderEvent string // original provider event name
	TenantID      uuid.UUID
	PlanType      plan.Type // set for plan purchases
	AddonID       string    // set for add-on purchases
	OrderID       string
	PaymentID     string
	Raw           map[string]any
}

// PaymentProvider validates and parses incoming webhook payloads into
// normalized payment events. Implementations must verify the signature to
// prevent webhook spoofing.
type PaymentProvider interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error)
}

// CheckoutRequest carries the data needed to open a hosted checkout session
// for a plan or add-on purchase. The tenant and purchased item travel in the
// session's custom data and come back on the webhook.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier from the catalog
	TenantID   uuid.UUID
	PlanType   plan.Type
	AddonID    string
	Email      string
	SuccessURL string
}

// CheckoutLink is a hosted checkout session returned by the provider.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// CheckoutProvider opens hosted checkout sessions. Kept separate from
// PaymentProvider so webhook-only deployments need not implement it.
type CheckoutProvider interface {
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)
}
