package plan

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Source defines how the plan and add-on catalogs are loaded into the
// subscription engine. The catalog is loaded once at engine construction
// and cached in memory; sources must return data safe to retain.
type Source interface {
	Plans(ctx context.Context) (map[Type]Plan, error)
	Addons(ctx context.Context) (map[string]Addon, error)
}

type inMemSource struct {
	mu     sync.RWMutex
	plans  map[Type]Plan
	addons map[string]Addon
}

// NewInMemSource returns an in-memory Source with a deep copy of the given
// catalog. Panics if no plans are provided to ensure the engine always has at
// least one valid plan. Deep copying prevents external modifications from
// affecting the source's state.
func NewInMemSource(plans []Plan, addons []Addon) Source {
	if len(plans) < 1 {
		panic("plan: at least one plan is required")
	}

	plansCopy := make(map[Type]Plan, len(plans))
	for _, p := range plans {
		plansCopy[p.Type] = clonePlan(p)
	}

	addonsCopy := make(map[string]Addon, len(addons))
	for _, a := range addons {
		addonsCopy[a.ID] = a
	}

	return &inMemSource{plans: plansCopy, addons: addonsCopy}
}

// Plans returns a copy of all plans so callers cannot mutate source state.
func (s *inMemSource) Plans(ctx context.Context) (map[Type]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Type]Plan, len(s.plans))
	for t, p := range s.plans {
		out[t] = clonePlan(p)
	}
	return out, nil
}

// Addons returns a copy of the add-on catalog.
func (s *inMemSource) Addons(ctx context.Context) (map[string]Addon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.addons), nil
}

func clonePlan(p Plan) Plan {
	return Plan{
		Type:       p.Type,
		Name:       p.Name,
		PriceID:    p.PriceID,
		Limits:     maps.Clone(p.Limits),
		Modules:    slices.Clone(p.Modules),
		Price:      p.Price,
		TaxPercent: p.TaxPercent,
		TrialDays:  p.TrialDays,
		Public:     p.Public,
	}
}

// Validate ensures catalog configurations are internally consistent.
// Catches common configuration errors early to prevent runtime issues.
func Validate(plans map[Type]Plan, addons map[string]Addon) error {
	for t, p := range plans {
		if p.Type != t {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("plan type mismatch: map key %s != plan.Type %s", t, p.Type))
		}
		if !p.Type.IsValid() {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("unknown plan type %q", p.Type))
		}
		if p.TrialDays < 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", t, p.TrialDays))
		}
		for res, limit := range p.Limits {
			if limit < Unlimited {
				return errors.Join(ErrInvalidConfiguration,
					fmt.Errorf("plan %s has invalid limit for %s: %d", t, res, limit))
			}
		}
	}

	for id, a := range addons {
		if a.ID != id {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("addon ID mismatch: map key %s != addon.ID %s", id, a.ID))
		}
		if a.Quantity <= 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("addon %s has non-positive quantity: %d", id, a.Quantity))
		}
	}

	return nil
}
