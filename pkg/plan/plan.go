package plan

import "slices"

// Plan describes a subscription tier: per-resource limits, included feature
// modules, pricing and trial configuration. Plans are read-only to the
// subscription engine; administrative edits happen at the catalog source.
type Plan struct {
	Type       Type               `yaml:"type"`
	Name       string             `yaml:"name"`
	PriceID    string             `yaml:"price_id"` // payment provider's price identifier
	Limits     map[Resource]int64 `yaml:"limits"`   // -1 represents unlimited
	Modules    []Module           `yaml:"modules"`
	Price      Money              `yaml:"price"`
	TaxPercent float64            `yaml:"tax_percent"`
	TrialDays  int                `yaml:"trial_days"`
	Public     bool               `yaml:"public"` // available for self-service signup
}

// Limit returns the configured limit for a resource.
// Resources absent from the limits map are treated as not purchasable (0).
func (p Plan) Limit(res Resource) int64 {
	limit, ok := p.Limits[res]
	if !ok {
		return 0
	}
	return limit
}

// HasModule reports whether the plan includes the given feature module.
func (p Plan) HasModule(m Module) bool {
	return slices.Contains(p.Modules, m)
}

// IsFree reports whether the plan is the trial tier.
func (p Plan) IsFree() bool {
	return p.Type == TypeFree
}

// Addon describes a purchasable quota extension in the catalog: a fixed
// quantity of one resource type at a fixed price. Purchased add-ons live in
// the add-on ledger and expire with the subscription segment they were
// bought inside.
type Addon struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	PriceID  string   `yaml:"price_id"` // payment provider's price identifier
	Resource Resource `yaml:"resource"`
	Quantity int64    `yaml:"quantity"`
	Price    Money    `yaml:"price"`
}
