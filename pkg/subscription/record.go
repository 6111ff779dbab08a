package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// Record represents one purchased or assigned subscription segment for a
// tenant. At most one record is currently applicable per tenant at any
// instant: startDate <= now <= endDate and the record is active.
//
// A lapsed record is mutated in place when the tenant repurchases, so a
// tenant that simply let a plan expire keeps one canonical row. A record
// that is still applicable (or scheduled in the future) is never mutated by
// a purchase; a new chained row is inserted instead.
type Record struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	PlanType      plan.Type
	StartDate     time.Time
	EndDate       time.Time // inclusive, end of day
	IsActive      bool
	PaymentStatus PaymentStatus
	TrialDays     int
	OrderID       string // external payment order identifier
	PaymentID     string // external payment identifier, idempotency key
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// AppliesAt reports whether the record is the currently applicable segment
// at the given instant. This date-range check is the source of truth for
// access decisions; the cached tenant pointer is a hint only.
func (r *Record) AppliesAt(now time.Time) bool {
	if r.DeletedAt != nil || !r.IsActive {
		return false
	}
	return !now.Before(r.StartDate) && !now.After(r.EndDate)
}

// Lapsed reports whether the record is neither applicable now nor scheduled
// for the future, meaning a repurchase may update it in place.
func (r *Record) Lapsed(now time.Time) bool {
	if r.DeletedAt != nil || !r.IsActive {
		return true
	}
	return r.EndDate.Before(now)
}

// IsTrial reports whether the segment belongs to the free trial tier.
func (r *Record) IsTrial() bool {
	return r.PlanType == plan.TypeFree
}
