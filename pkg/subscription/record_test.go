package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

func TestRecord_AppliesAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)
	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	base := subscription.Record{StartDate: start, EndDate: end, IsActive: true}

	t.Run("applies inside the segment", func(t *testing.T) {
		t.Parallel()

		r := base
		assert.True(t, r.AppliesAt(now))
		assert.True(t, r.AppliesAt(start))
		assert.True(t, r.AppliesAt(end))
	})

	t.Run("outside the segment", func(t *testing.T) {
		t.Parallel()

		r := base
		assert.False(t, r.AppliesAt(start.Add(-time.Second)))
		assert.False(t, r.AppliesAt(end.Add(time.Second)))
	})

	t.Run("inactive never applies", func(t *testing.T) {
		t.Parallel()

		r := base
		r.IsActive = false
		assert.False(t, r.AppliesAt(now))
	})

	t.Run("deleted never applies", func(t *testing.T) {
		t.Parallel()

		r := base
		r.DeletedAt = &now
		assert.False(t, r.AppliesAt(now))
	})
}

func TestRecord_Lapsed(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	t.Run("running segment is not lapsed", func(t *testing.T) {
		t.Parallel()

		r := subscription.Record{
			StartDate: now.AddDate(0, 0, -5),
			EndDate:   now.AddDate(0, 0, 5),
			IsActive:  true,
		}
		assert.False(t, r.Lapsed(now))
	})

	t.Run("future segment is not lapsed", func(t *testing.T) {
		t.Parallel()

		r := subscription.Record{
			StartDate: now.AddDate(0, 1, 0),
			EndDate:   now.AddDate(0, 2, 0),
			IsActive:  true,
		}
		assert.False(t, r.Lapsed(now))
	})

	t.Run("ended segment is lapsed", func(t *testing.T) {
		t.Parallel()

		r := subscription.Record{
			StartDate: now.AddDate(0, -2, 0),
			EndDate:   now.AddDate(0, -1, 0),
			IsActive:  true,
		}
		assert.True(t, r.Lapsed(now))
	})

	t.Run("inactive or deleted is lapsed", func(t *testing.T) {
		t.Parallel()

		r := subscription.Record{StartDate: now, EndDate: now.AddDate(0, 1, 0)}
		assert.True(t, r.Lapsed(now))

		r.IsActive = true
		r.DeletedAt = &now
		assert.True(t, r.Lapsed(now))
	})
}

func TestRecord_IsTrial(t *testing.T) {
	t.Parallel()

	assert.True(t, (&subscription.Record{PlanType: plan.TypeFree}).IsTrial())
	assert.False(t, (&subscription.Record{PlanType: plan.TypeMonthly}).IsTrial())
}
