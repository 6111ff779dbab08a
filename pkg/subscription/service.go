package subscription

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/logger"
	"github.com/visitdesk/visitdesk/pkg/plan"
)

// Service is the subscription lifecycle engine: it computes quota windows,
// enforces per-resource limits, processes payment events idempotently and
// maintains the subscription, history and add-on ledgers.
type Service interface {
	// Limit and module gates
	CheckLimit(ctx context.Context, userID uuid.UUID, res plan.Resource) error
	CheckModule(ctx context.Context, tenantID uuid.UUID, m plan.Module) error
	Status(ctx context.Context, tenantID uuid.UUID) (*Status, error)

	// Payment-event intake
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ProcessEvent(ctx context.Context, ev *PaymentEvent) error

	// Lifecycle transitions, all idempotent on the payment identifier
	ActivateTrial(ctx context.Context, tenantID uuid.UUID, paymentID string) (*Record, error)
	ActivatePlan(ctx context.Context, tenantID uuid.UUID, pt plan.Type, orderID, paymentID string, opts ActivateOptions) (*Record, error)
	PurchaseAddon(ctx context.Context, tenantID uuid.UUID, addonID, orderID, paymentID string) (*AddonRecord, error)

	// Administrative surface
	Cancel(ctx context.Context, tenantID uuid.UUID) error
	History(ctx context.Context, tenantID uuid.UUID, page Page) ([]HistoryEntry, error)
	Addons(ctx context.Context, tenantID uuid.UUID, page Page) ([]AddonRecord, error)

	// Maintenance sweep
	ExpireLapsed(ctx context.Context) (int64, error)
}

// Caller identifies the acting tenant for a quota check. Employee callers
// resolve to their owning tenant: their usage counts against, and is
// reported in terms of, the tenant account.
type Caller struct {
	TenantID   uuid.UUID
	IsEmployee bool
}

// CallerResolver maps a user ID to the tenant whose quota applies.
type CallerResolver func(ctx context.Context, userID uuid.UUID) (Caller, error)

// ActivateOptions tweaks a plan activation. StartDate lets administrators
// backdate or future-date an assigned segment; it is ignored when the
// activation chains onto a still-running segment.
type ActivateOptions struct {
	StartDate *time.Time
	Source    Source
}

// Stores bundles the persistence dependencies of the engine.
type Stores struct {
	Records  RecordStore
	History  HistoryStore
	Addons   AddonStore
	Profiles ProfileStore
	Tenants  TenantStore
	Tx       Transactor
}

type engine struct {
	plans    map[plan.Type]plan.Plan
	addons   map[string]plan.Addon
	counters map[plan.Resource]CounterFunc
	resolver CallerResolver
	provider PaymentProvider
	stores   Stores
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine creates the lifecycle engine. Panics if required dependencies
// are nil to fail fast during initialization. The plan and add-on catalogs
// are loaded once and cached for the engine's lifetime.
func NewEngine(ctx context.Context, catalog plan.Source, provider PaymentProvider, stores Stores, opts ...Option) (Service, error) {
	if catalog == nil {
		panic("subscription: plan catalog source is required")
	}
	if stores.Records == nil || stores.History == nil || stores.Addons == nil || stores.Profiles == nil || stores.Tenants == nil {
		panic("subscription: all stores are required")
	}

	plans, err := catalog.Plans(ctx)
	if err != nil {
		return nil, errors.Join(plan.ErrFailedToLoadCatalog, err)
	}
	addons, err := catalog.Addons(ctx)
	if err != nil {
		return nil, errors.Join(plan.ErrFailedToLoadCatalog, err)
	}
	if err := plan.Validate(plans, addons); err != nil {
		return nil, err
	}

	if stores.Tx == nil {
		stores.Tx = NopTransactor{}
	}

	e := &engine{
		plans:    plans,
		addons:   addons,
		counters: make(map[plan.Resource]CounterFunc),
		resolver: selfResolver,
		provider: provider,
		stores:   stores,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// selfResolver treats every caller as its own tenant. Deployments with
// employee accounts install a resolver backed by the user directory.
func selfResolver(_ context.Context, userID uuid.UUID) (Caller, error) {
	return Caller{TenantID: userID}, nil
}

// CheckLimit is the limit-enforcement gate invoked before every resource
// creation. It resolves the caller to the owning tenant, loads the
// applicable segment and valid add-ons, counts usage inside the current
// window and accepts or rejects.
//
// The check and the subsequent resource insert are deliberately not one
// transaction; two concurrent creations can both observe the last free slot.
// The blast radius is a tenant exceeding its quota by the number of racers.
func (e *engine) CheckLimit(ctx context.Context, userID uuid.UUID, res plan.Resource) error {
	caller, err := e.resolver(ctx, userID)
	if err != nil {
		return err
	}

	now := e.now()
	rec, err := e.stores.Records.Applicable(ctx, caller.TenantID, now)
	if errors.Is(err, ErrRecordNotFound) {
		return &LimitError{Resource: res, Reason: ReasonExpired, ForEmployee: caller.IsEmployee}
	} else if err != nil {
		return err
	}

	p, ok := e.plans[rec.PlanType]
	if !ok {
		return plan.ErrNotFound
	}

	base := p.Limit(res)
	if base == plan.Unlimited {
		return nil
	}

	valid, err := e.stores.Addons.ValidBetween(ctx, caller.TenantID, rec.StartDate, rec.EndDate)
	if err != nil {
		return err
	}
	extra := extraQuantity(valid, res, rec.StartDate, rec.EndDate)

	used, err := e.countUsage(ctx, caller.TenantID, res, rec, now)
	if err != nil {
		return err
	}

	if used >= base+extra {
		return &LimitError{Resource: res, Reason: ReasonLimitReached, ForEmployee: caller.IsEmployee}
	}
	return nil
}

// countUsage invokes the registered counter for the resource. Employees are
// standing capacity and counted as active seats; flow resources are counted
// inside the window anchored to the segment's start date.
func (e *engine) countUsage(ctx context.Context, tenantID uuid.UUID, res plan.Resource, rec *Record, now time.Time) (int64, error) {
	counter, ok := e.counters[res]
	if !ok {
		return 0, ErrNoCounterRegistered
	}

	var win *Window
	if res != plan.ResourceEmployees {
		w := CurrentWindow(&rec.StartDate, now)
		win = &w
	}

	used, err := counter(ctx, tenantID, win)
	if err != nil {
		return 0, errors.Join(ErrUsageCountFailed, err)
	}
	return used, nil
}

// Status returns the dashboard snapshot: plan, activity flags and derived
// per-resource limit info. Counter failures degrade to zero usage rather
// than failing the whole snapshot.
func (e *engine) Status(ctx context.Context, tenantID uuid.UUID) (*Status, error) {
	now := e.now()

	expired := false
	rec, err := e.stores.Records.Applicable(ctx, tenantID, now)
	if errors.Is(err, ErrRecordNotFound) {
		expired = true
		rec, err = e.stores.Records.Latest(ctx, tenantID)
		if errors.Is(err, ErrRecordNotFound) {
			return &Status{
				IsExpired: true,
				Limits:    map[plan.Resource]LimitInfo{},
				Modules:   map[plan.Module]bool{},
			}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	p, ok := e.plans[rec.PlanType]
	if !ok {
		return nil, plan.ErrNotFound
	}

	win := CurrentWindow(&rec.StartDate, now)
	st := &Status{
		IsTrial:   rec.IsTrial(),
		PlanType:  rec.PlanType,
		IsActive:  !expired,
		IsExpired: expired,
		Window:    &win,
		Limits:    make(map[plan.Resource]LimitInfo, len(plan.Resources)),
		Modules:   make(map[plan.Module]bool, len(p.Modules)),
	}

	for _, m := range p.Modules {
		st.Modules[m] = !expired
	}

	var valid []AddonRecord
	if !expired {
		if valid, err = e.stores.Addons.ValidBetween(ctx, tenantID, rec.StartDate, rec.EndDate); err != nil {
			return nil, err
		}
	}

	for _, res := range plan.Resources {
		var used int64
		if counter, ok := e.counters[res]; ok {
			w := win
			var winPtr *Window
			if res != plan.ResourceEmployees {
				winPtr = &w
			}
			if n, err := counter(ctx, tenantID, winPtr); err == nil {
				used = n
			}
		}
		extra := extraQuantity(valid, res, rec.StartDate, rec.EndDate)
		st.Limits[res] = resolveLimit(p, res, used, extra, expired)
	}

	return st, nil
}

// CheckModule gates optional feature modules. Fails closed: an expired
// subscription grants no module access.
func (e *engine) CheckModule(ctx context.Context, tenantID uuid.UUID, m plan.Module) error {
	rec, err := e.stores.Records.Applicable(ctx, tenantID, e.now())
	if errors.Is(err, ErrRecordNotFound) {
		return ErrModuleNotIncluded
	} else if err != nil {
		return err
	}

	p, ok := e.plans[rec.PlanType]
	if !ok {
		return plan.ErrNotFound
	}
	if !p.HasModule(m) {
		return ErrModuleNotIncluded
	}
	return nil
}

// HandleWebhook verifies and parses a raw gateway delivery, then processes
// the normalized event.
func (e *engine) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if e.provider == nil {
		return ErrNoPaymentProvider
	}
	ev, err := e.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return e.ProcessEvent(ctx, ev)
}

// ProcessEvent dispatches a normalized payment event. Unknown event kinds
// are logged and acknowledged so the gateway does not redeliver events the
// engine intentionally does not act on.
func (e *engine) ProcessEvent(ctx context.Context, ev *PaymentEvent) error {
	switch ev.Kind {
	case EventSetupVerified:
		_, err := e.ActivateTrial(ctx, ev.TenantID, ev.PaymentID)
		return err
	case EventPaymentSucceeded:
		if ev.AddonID != "" {
			_, err := e.PurchaseAddon(ctx, ev.TenantID, ev.AddonID, ev.OrderID, ev.PaymentID)
			return err
		}
		_, err := e.ActivatePlan(ctx, ev.TenantID, ev.PlanType, ev.OrderID, ev.PaymentID, ActivateOptions{Source: SourceUser})
		return err
	default:
		e.log.InfoContext(ctx, "ignoring unhandled payment event",
			logger.Component("subscription"),
			logger.Event(ev.ProviderEvent),
			logger.PaymentID(ev.PaymentID))
		return nil
	}
}

// ActivateTrial transitions none -> trialing on a successful card
// verification: a free-plan segment from now through now+trialDays.
// Idempotent on the payment identifier.
func (e *engine) ActivateTrial(ctx context.Context, tenantID uuid.UUID, paymentID string) (*Record, error) {
	if existing, err := e.stores.Records.ByPaymentID(ctx, paymentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	p, ok := e.plans[plan.TypeFree]
	if !ok {
		return nil, plan.ErrNotFound
	}

	now := e.now()
	rec := &Record{
		ID:            uuid.New(),
		TenantID:      tenantID,
		PlanType:      plan.TypeFree,
		StartDate:     now,
		EndDate:       endOfDay(now.AddDate(0, 0, p.TrialDays)),
		IsActive:      true,
		PaymentStatus: StatusSucceeded,
		TrialDays:     p.TrialDays,
		PaymentID:     paymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := e.stores.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := e.stores.Records.Insert(ctx, rec); err != nil {
			return err
		}
		entry, err := e.newHistoryEntry(ctx, rec, p.Price, p.TaxPercent, SourceSystem, now)
		if err != nil {
			return err
		}
		if err := e.stores.History.Append(ctx, entry); err != nil {
			return err
		}
		return e.stores.Tenants.SetActiveSubscription(ctx, tenantID, rec.ID)
	})
	if errors.Is(err, ErrDuplicatePayment) {
		// Lost a redelivery race; the other delivery's row wins.
		return e.stores.Records.ByPaymentID(ctx, paymentID)
	}
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "trial activated",
		logger.Component("subscription"),
		logger.TenantID(tenantID),
		logger.PaymentID(paymentID))
	return rec, nil
}

// ActivatePlan processes a successful plan payment: renewal, upgrade or
// extension. Idempotent on the payment identifier.
//
// A payment arriving while the current segment still runs chains seamlessly:
// the new segment starts the day after the current one ends, so there is no
// gap and no double-billed overlap. A payment for a lapsed tenant updates
// the lapsed row in place, keeping one canonical row per simple repurchase.
// The tenant's active-subscription pointer moves only when the new segment
// has already started; future-dated segments must not prematurely become
// current.
func (e *engine) ActivatePlan(ctx context.Context, tenantID uuid.UUID, pt plan.Type, orderID, paymentID string, opts ActivateOptions) (*Record, error) {
	if existing, err := e.stores.Records.ByPaymentID(ctx, paymentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	p, ok := e.plans[pt]
	if !ok {
		return nil, plan.ErrNotFound
	}

	now := e.now()
	latest, err := e.stores.Records.Latest(ctx, tenantID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	haveLatest := err == nil

	isExtension := haveLatest && latest.DeletedAt == nil && latest.IsActive && latest.EndDate.After(now)

	var start time.Time
	switch {
	case isExtension:
		start = startOfDay(latest.EndDate).AddDate(0, 0, 1)
	case opts.StartDate != nil:
		start = *opts.StartDate
	default:
		start = now
	}
	end := periodEnd(p, start)

	src := opts.Source
	if src == "" {
		src = SourceUser
	}

	updateInPlace := haveLatest && latest.Lapsed(now)

	var rec *Record
	if updateInPlace {
		rec = latest
		rec.PlanType = pt
		rec.StartDate = start
		rec.EndDate = end
		rec.IsActive = true
		rec.PaymentStatus = StatusSucceeded
		rec.TrialDays = p.TrialDays
		rec.OrderID = orderID
		rec.PaymentID = paymentID
		rec.DeletedAt = nil
		rec.UpdatedAt = now
	} else {
		rec = &Record{
			ID:            uuid.New(),
			TenantID:      tenantID,
			PlanType:      pt,
			StartDate:     start,
			EndDate:       end,
			IsActive:      true,
			PaymentStatus: StatusSucceeded,
			TrialDays:     p.TrialDays,
			OrderID:       orderID,
			PaymentID:     paymentID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	err = e.stores.Tx.InTx(ctx, func(ctx context.Context) error {
		if updateInPlace {
			if err := e.stores.Records.Update(ctx, rec); err != nil {
				return err
			}
		} else if err := e.stores.Records.Insert(ctx, rec); err != nil {
			return err
		}

		entry, err := e.newHistoryEntry(ctx, rec, p.Price, p.TaxPercent, src, now)
		if err != nil {
			return err
		}
		if err := e.stores.History.Append(ctx, entry); err != nil {
			return err
		}

		if !start.After(now) {
			return e.stores.Tenants.SetActiveSubscription(ctx, tenantID, rec.ID)
		}
		return nil
	})
	if errors.Is(err, ErrDuplicatePayment) {
		return e.stores.Records.ByPaymentID(ctx, paymentID)
	}
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "plan activated",
		logger.Component("subscription"),
		logger.TenantID(tenantID),
		logger.PlanType(string(pt)),
		logger.PaymentID(paymentID))
	return rec, nil
}

// PurchaseAddon records a quota-extension purchase. Idempotent on the
// payment identifier. The purchase never touches the subscription segment's
// end date; validity is derived at quota-check time and the add-on stops
// counting once the segment it was bought inside ends.
func (e *engine) PurchaseAddon(ctx context.Context, tenantID uuid.UUID, addonID, orderID, paymentID string) (*AddonRecord, error) {
	if existing, err := e.stores.Addons.ByPaymentID(ctx, paymentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	a, ok := e.addons[addonID]
	if !ok {
		return nil, plan.ErrAddonNotFound
	}

	rec := &AddonRecord{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AddonID:       a.ID,
		Resource:      a.Resource,
		Quantity:      a.Quantity,
		PaymentStatus: StatusSucceeded,
		OrderID:       orderID,
		PaymentID:     paymentID,
		IsActive:      true,
		CreatedAt:     e.now(),
	}

	if err := e.stores.Addons.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicatePayment) {
			return e.stores.Addons.ByPaymentID(ctx, paymentID)
		}
		return nil, err
	}

	e.log.InfoContext(ctx, "addon purchased",
		logger.Component("subscription"),
		logger.TenantID(tenantID),
		logger.PaymentID(paymentID))
	return rec, nil
}

// Cancel performs explicit administrative cancellation of the currently
// applicable segment: the record is deactivated with endDate=now, a
// zero-amount cancellation entry lands in the history ledger and the
// tenant's active-subscription pointer is cleared, all in one transaction.
func (e *engine) Cancel(ctx context.Context, tenantID uuid.UUID) error {
	now := e.now()
	rec, err := e.stores.Records.Applicable(ctx, tenantID, now)
	if err != nil {
		return err
	}

	p, ok := e.plans[rec.PlanType]
	if !ok {
		return plan.ErrNotFound
	}

	rec.IsActive = false
	rec.EndDate = now
	rec.PaymentStatus = StatusCancelled
	rec.DeletedAt = &now
	rec.UpdatedAt = now

	err = e.stores.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := e.stores.Records.Update(ctx, rec); err != nil {
			return err
		}
		entry, err := e.newHistoryEntry(ctx, rec, plan.Money{Currency: p.Price.Currency}, 0, SourceAdmin, now)
		if err != nil {
			return err
		}
		entry.PaymentStatus = StatusCancelled
		if err := e.stores.History.Append(ctx, entry); err != nil {
			return err
		}
		return e.stores.Tenants.ClearActiveSubscription(ctx, tenantID)
	})
	if err != nil {
		return err
	}

	e.log.InfoContext(ctx, "subscription cancelled",
		logger.Component("subscription"),
		logger.TenantID(tenantID))
	return nil
}

// History lists the tenant's history ledger entries, newest first.
func (e *engine) History(ctx context.Context, tenantID uuid.UUID, page Page) ([]HistoryEntry, error) {
	return e.stores.History.List(ctx, tenantID, page.normalize())
}

// Addons lists the tenant's add-on ledger rows, newest first.
func (e *engine) Addons(ctx context.Context, tenantID uuid.UUID, page Page) ([]AddonRecord, error) {
	return e.stores.Addons.List(ctx, tenantID, page.normalize())
}

// ExpireLapsed flips active flags on segments whose end date has passed.
// The flip is maintenance for reporting; access decisions converge through
// the applicable-record query regardless of when the sweep runs.
func (e *engine) ExpireLapsed(ctx context.Context) (int64, error) {
	n, err := e.stores.Records.ExpireLapsed(ctx, e.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.InfoContext(ctx, "expired lapsed subscriptions",
			logger.Component("subscription"),
			logger.Count(n))
	}
	return n, nil
}

// newHistoryEntry builds a ledger entry for a segment transition, allocating
// the next invoice number through the profile store's atomic counter.
func (e *engine) newHistoryEntry(ctx context.Context, rec *Record, price plan.Money, taxPercent float64, src Source, now time.Time) (*HistoryEntry, error) {
	profile, err := e.stores.Profiles.Current(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := e.stores.Profiles.NextInvoiceSeq(ctx)
	if err != nil {
		return nil, err
	}

	taxAmount := int64(math.Round(float64(price.Amount) * taxPercent / 100))

	return &HistoryEntry{
		ID:            uuid.New(),
		TenantID:      rec.TenantID,
		RecordID:      rec.ID,
		PlanType:      rec.PlanType,
		InvoiceNumber: FormatInvoiceNumber(profile.InvoicePrefix, seq, now),
		PurchasedAt:   now,
		StartDate:     rec.StartDate,
		EndDate:       rec.EndDate,
		Amount:        price.Amount,
		Currency:      price.Currency,
		TaxAmount:     taxAmount,
		TaxPercent:    taxPercent,
		PaymentStatus: StatusSucceeded,
		OrderID:       rec.OrderID,
		PaymentID:     rec.PaymentID,
		Source:        src,
		Billing:       profile.Snapshot,
	}, nil
}
