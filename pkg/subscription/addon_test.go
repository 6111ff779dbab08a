package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

func TestAddonRecord_ValidFor(t *testing.T) {
	t.Parallel()

	segStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	segEnd := time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)

	valid := subscription.AddonRecord{
		Resource:      plan.ResourceAppointments,
		Quantity:      5,
		PaymentStatus: subscription.StatusSucceeded,
		IsActive:      true,
		CreatedAt:     segStart.AddDate(0, 0, 10),
	}

	t.Run("purchased inside the segment", func(t *testing.T) {
		t.Parallel()

		a := valid
		assert.True(t, a.ValidFor(segStart, segEnd))
	})

	t.Run("purchased before the segment", func(t *testing.T) {
		t.Parallel()

		a := valid
		a.CreatedAt = segStart.AddDate(0, 0, -1)
		assert.False(t, a.ValidFor(segStart, segEnd))
	})

	t.Run("purchased after the segment", func(t *testing.T) {
		t.Parallel()

		a := valid
		a.CreatedAt = segEnd.Add(time.Second)
		assert.False(t, a.ValidFor(segStart, segEnd))
	})

	t.Run("pending payment does not count", func(t *testing.T) {
		t.Parallel()

		a := valid
		a.PaymentStatus = subscription.StatusPending
		assert.False(t, a.ValidFor(segStart, segEnd))
	})

	t.Run("deactivated does not count", func(t *testing.T) {
		t.Parallel()

		a := valid
		a.IsActive = false
		assert.False(t, a.ValidFor(segStart, segEnd))
	})
}
