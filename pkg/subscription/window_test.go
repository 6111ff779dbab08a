package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurrentWindow(t *testing.T) {
	t.Parallel()

	start := date(2024, time.January, 15)

	tests := []struct {
		name      string
		start     *time.Time
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "no subscription falls back to calendar month",
			start:     nil,
			now:       time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.March, 1),
			wantEnd:   time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "first window on start day",
			start:     &start,
			now:       time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.January, 15),
			wantEnd:   time.Date(2024, time.February, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "mid first window",
			start:     &start,
			now:       time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.January, 15),
			wantEnd:   time.Date(2024, time.February, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "second window starts on anchor day",
			start:     &start,
			now:       time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.February, 15),
			wantEnd:   time.Date(2024, time.March, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "many months later",
			start:     &start,
			now:       time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
			wantStart: date(2025, time.January, 15),
			wantEnd:   time.Date(2025, time.February, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "anchor on 31st clamps to shorter months",
			start: func() *time.Time {
				s := date(2024, time.January, 31)
				return &s
			}(),
			now:       time.Date(2024, time.February, 29, 10, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.February, 29),
			wantEnd:   time.Date(2024, time.March, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "now before start pins to first window",
			start: func() *time.Time {
				s := date(2024, time.June, 1)
				return &s
			}(),
			now:       time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC),
			wantStart: date(2024, time.June, 1),
			wantEnd:   time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := CurrentWindow(tt.start, tt.now)
			assert.Equal(t, tt.wantStart, w.Start, "window start")
			assert.Equal(t, tt.wantEnd, w.End, "window end")
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	t.Parallel()

	w := Window{
		Start: date(2024, time.January, 15),
		End:   time.Date(2024, time.February, 14, 23, 59, 59, 0, time.UTC),
	}

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End))
	assert.True(t, w.Contains(date(2024, time.February, 1)))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
	assert.False(t, w.Contains(w.End.Add(time.Second)))
}

func TestPeriodEnd(t *testing.T) {
	t.Parallel()

	start := date(2024, time.March, 15)

	tests := []struct {
		name string
		plan plan.Plan
		want time.Time
	}{
		{
			name: "weekly",
			plan: plan.Plan{Type: plan.TypeWeekly},
			want: time.Date(2024, time.March, 21, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "monthly",
			plan: plan.Plan{Type: plan.TypeMonthly},
			want: time.Date(2024, time.April, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "quarterly",
			plan: plan.Plan{Type: plan.TypeQuarterly},
			want: time.Date(2024, time.June, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "yearly",
			plan: plan.Plan{Type: plan.TypeYearly},
			want: time.Date(2025, time.March, 14, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "free trial uses trial days",
			plan: plan.Plan{Type: plan.TypeFree, TrialDays: 14},
			want: time.Date(2024, time.March, 29, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, periodEnd(tt.plan, start))
		})
	}

	t.Run("monthly from end of january clamps", func(t *testing.T) {
		t.Parallel()

		got := periodEnd(plan.Plan{Type: plan.TypeMonthly}, date(2024, time.January, 31))
		assert.Equal(t, time.Date(2024, time.February, 28, 23, 59, 59, 0, time.UTC), got)
	})
}

func TestAddMonthsClamped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, date(2024, time.February, 29), addMonthsClamped(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2023, time.February, 28), addMonthsClamped(date(2023, time.January, 31), 1))
	assert.Equal(t, date(2025, time.January, 15), addMonthsClamped(date(2024, time.December, 15), 1))
	assert.Equal(t, date(2023, time.December, 31), addMonthsClamped(date(2024, time.January, 31), -1))
}
