package subscription

import "github.com/visitdesk/visitdesk/pkg/plan"

// LimitInfo is the derived quota state for one resource type.
type LimitInfo struct {
	Used      int64
	Base      int64 // plan limit, -1 for unlimited
	Extra     int64 // sum of valid add-on quantities
	Total     int64 // Base + Extra, or -1 when the base is unlimited
	Unlimited bool
	Reached   bool
	CanCreate bool
}

// Status is the tenant-facing subscription snapshot consumed by dashboards.
type Status struct {
	IsTrial   bool
	PlanType  plan.Type
	IsActive  bool
	IsExpired bool
	Window    *Window // current quota window, nil when the tenant never subscribed
	Limits    map[plan.Resource]LimitInfo
	Modules   map[plan.Module]bool
}

// resolveLimit derives the quota state for one resource. An expired tenant
// can create nothing, even on an otherwise-unlimited plan. Add-on quantities
// extend limited plans only; unlimited stays unlimited.
func resolveLimit(p plan.Plan, res plan.Resource, used, extra int64, expired bool) LimitInfo {
	base := p.Limit(res)
	info := LimitInfo{Used: used, Base: base, Extra: extra}

	if base == plan.Unlimited {
		info.Unlimited = true
		info.Total = plan.Unlimited
		info.Reached = expired
	} else {
		info.Total = base + extra
		info.Reached = expired || used >= info.Total
	}

	info.CanCreate = !expired && !info.Reached
	return info
}
