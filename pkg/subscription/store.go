package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordStore persists subscription segments.
type RecordStore interface {
	// Insert adds a new segment. Returns ErrDuplicatePayment when the
	// payment identifier is already recorded.
	Insert(ctx context.Context, rec *Record) error

	// Update rewrites an existing segment in place (lapsed-record
	// repurchase, cancellation, flag maintenance).
	Update(ctx context.Context, rec *Record) error

	// Applicable returns the segment whose [startDate, endDate] contains
	// the given instant and which is active and not deleted.
	// Returns ErrRecordNotFound when no segment applies.
	Applicable(ctx context.Context, tenantID uuid.UUID, at time.Time) (*Record, error)

	// Latest returns the tenant's most recent segment by end date,
	// applicable or not. Returns ErrRecordNotFound for tenants without any.
	Latest(ctx context.Context, tenantID uuid.UUID) (*Record, error)

	// ByPaymentID looks a segment up by the external payment identifier.
	// Used for idempotent payment-event intake.
	ByPaymentID(ctx context.Context, paymentID string) (*Record, error)

	// ExpireLapsed flips isActive=false, paymentStatus=failed on every
	// active segment whose end date has passed. Returns the number of
	// segments flipped. Idempotent.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

// HistoryStore persists the append-only subscription history ledger.
// The interface deliberately exposes no update or delete.
type HistoryStore interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	List(ctx context.Context, tenantID uuid.UUID, page Page) ([]HistoryEntry, error)
}

// AddonStore persists the add-on ledger.
type AddonStore interface {
	// Insert adds a purchase row. Returns ErrDuplicatePayment when the
	// payment identifier is already recorded.
	Insert(ctx context.Context, rec *AddonRecord) error

	ByPaymentID(ctx context.Context, paymentID string) (*AddonRecord, error)

	// ValidBetween returns succeeded, active add-ons created inside
	// [from, to], the validity rule bound to a subscription segment.
	ValidBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]AddonRecord, error)

	List(ctx context.Context, tenantID uuid.UUID, page Page) ([]AddonRecord, error)
}

// ProfileStore reads the billing profile and allocates invoice sequence
// numbers. NextInvoiceSeq must be an atomic storage-level increment so
// concurrent purchases never receive colliding numbers.
type ProfileStore interface {
	Current(ctx context.Context) (*BillingProfile, error)
	NextInvoiceSeq(ctx context.Context) (int64, error)
}

// TenantStore maintains the tenant's cached active-subscription pointer.
// The pointer is a performance hint only; access decisions always go
// through RecordStore.Applicable.
type TenantStore interface {
	SetActiveSubscription(ctx context.Context, tenantID, recordID uuid.UUID) error
	ClearActiveSubscription(ctx context.Context, tenantID uuid.UUID) error
}

// Transactor runs fn inside one atomic storage transaction. Segment writes,
// their history entries and the tenant pointer update are all-or-nothing.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTransactor runs fn without transactional guarantees. Useful for tests
// and single-node deployments without replica sets.
type NopTransactor struct{}

func (NopTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CounterFunc returns the current usage for a tenant resource, restricted to
// the given window when non-nil. Seat-style resources (employees) are
// counted point-in-time with a nil window; flow resources (visitors,
// appointments, spot passes) are counted inside the current quota window.
// Must be fast and ideally cached as it runs on every creation attempt.
type CounterFunc func(ctx context.Context, tenantID uuid.UUID, win *Window) (int64, error)
