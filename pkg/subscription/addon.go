package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// AddonRecord is one row in the add-on ledger: a purchased or
// administratively granted quota extension. Add-ons expire with the
// subscription segment they were purchased inside; there is no explicit
// deactivation step, validity is computed at quota-check time.
type AddonRecord struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	AddonID       string // catalog add-on identifier
	Resource      plan.Resource
	Quantity      int64
	PaymentStatus PaymentStatus
	OrderID       string
	PaymentID     string // idempotency key
	IsActive      bool
	CreatedAt     time.Time
}

// ValidFor reports whether the add-on counts toward quota for the segment
// bounded by [segStart, segEnd]: payment succeeded, still active, and
// purchased inside the segment.
func (a *AddonRecord) ValidFor(segStart, segEnd time.Time) bool {
	if a.PaymentStatus != StatusSucceeded || !a.IsActive {
		return false
	}
	return !a.CreatedAt.Before(segStart) && !a.CreatedAt.After(segEnd)
}

// extraQuantity sums the quantities of add-ons valid for the given segment
// and resource type.
func extraQuantity(addons []AddonRecord, res plan.Resource, segStart, segEnd time.Time) int64 {
	var total int64
	for i := range addons {
		a := &addons[i]
		if a.Resource == res && a.ValidFor(segStart, segEnd) {
			total += a.Quantity
		}
	}
	return total
}
