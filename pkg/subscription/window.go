package subscription

import (
	"time"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// Window is the rolling monthly period against which flow-resource usage is
// counted. Both bounds are inclusive; End always falls on 23:59:59 of the
// window's last day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CurrentWindow computes the quota window containing now.
//
// Without a subscription the window is the calendar month of now. With a
// subscription starting at S, windows are anchored to S's day-of-month and
// advance in whole-month increments: a subscription starting Jan 15 yields
// windows Jan 15–Feb 14, Feb 15–Mar 14 and so on. The anchor day is clamped
// to the last day of shorter months.
func CurrentWindow(start *time.Time, now time.Time) Window {
	if start == nil {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Window{Start: first, End: endOfDay(first.AddDate(0, 1, -1))}
	}

	s := startOfDay(*start)
	months := (now.Year()-s.Year())*12 + int(now.Month()) - int(s.Month())
	// The anchor day (after clamping) has not yet occurred this calendar month.
	if months > 0 && now.Before(addMonthsClamped(s, months)) {
		months--
	}
	if months < 0 {
		months = 0
	}

	// The end is derived from the original anchor, not the clamped window
	// start, so a Jan 31 anchor keeps producing month-end boundaries.
	ws := addMonthsClamped(s, months)
	we := endOfDay(addMonthsClamped(s, months+1).AddDate(0, 0, -1))
	return Window{Start: ws, End: we}
}

// periodEnd computes the inclusive end of a purchased segment: the plan
// period added to start, minus one day, end of day. Billing periods never
// overlap: a segment ending Mar 14 chains into one starting Mar 15.
func periodEnd(p plan.Plan, start time.Time) time.Time {
	var next time.Time
	switch p.Type {
	case plan.TypeWeekly:
		next = start.AddDate(0, 0, 7)
	case plan.TypeMonthly:
		next = addMonthsClamped(start, 1)
	case plan.TypeQuarterly:
		next = addMonthsClamped(start, 3)
	case plan.TypeYearly:
		next = addMonthsClamped(start, 12)
	default: // free trial
		return endOfDay(start.AddDate(0, 0, p.TrialDays))
	}
	return endOfDay(next.AddDate(0, 0, -1))
}

// addMonthsClamped adds whole months keeping the day-of-month, clamping to
// the last day of the target month (Jan 31 + 1 month = Feb 28/29). Plain
// time.AddDate would normalize Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m := t.Year(), int(t.Month())+months
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}

	day := t.Day()
	if last := daysInMonth(y, time.Month(m)); day > last {
		day = last
	}
	return time.Date(y, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
