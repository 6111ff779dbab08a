package subscription_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// In-memory store fakes mirroring the mongo stores' contracts, including the
// unique payment-id behavior the engine's idempotency depends on.

type fakeRecordStore struct {
	mu   sync.Mutex
	recs []*subscription.Record
}

func (s *fakeRecordStore) Insert(ctx context.Context, rec *subscription.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if rec.PaymentID != "" && r.PaymentID == rec.PaymentID {
			return subscription.ErrDuplicatePayment
		}
	}
	cp := *rec
	s.recs = append(s.recs, &cp)
	return nil
}

func (s *fakeRecordStore) Update(ctx context.Context, rec *subscription.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.recs {
		if r.ID == rec.ID {
			cp := *rec
			s.recs[i] = &cp
			return nil
		}
	}
	return subscription.ErrRecordNotFound
}

func (s *fakeRecordStore) Applicable(ctx context.Context, tenantID uuid.UUID, at time.Time) (*subscription.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *subscription.Record
	for _, r := range s.recs {
		if r.TenantID != tenantID || !r.AppliesAt(at) {
			continue
		}
		if best == nil || r.StartDate.After(best.StartDate) {
			best = r
		}
	}
	if best == nil {
		return nil, subscription.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *fakeRecordStore) Latest(ctx context.Context, tenantID uuid.UUID) (*subscription.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *subscription.Record
	for _, r := range s.recs {
		if r.TenantID != tenantID {
			continue
		}
		if best == nil || r.EndDate.After(best.EndDate) {
			best = r
		}
	}
	if best == nil {
		return nil, subscription.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (s *fakeRecordStore) ByPaymentID(ctx context.Context, paymentID string) (*subscription.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if paymentID != "" && r.PaymentID == paymentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, subscription.ErrRecordNotFound
}

func (s *fakeRecordStore) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.recs {
		if r.IsActive && r.EndDate.Before(now) {
			r.IsActive = false
			r.PaymentStatus = subscription.StatusFailed
			n++
		}
	}
	return n, nil
}

func (s *fakeRecordStore) all(tenantID uuid.UUID) []subscription.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscription.Record
	for _, r := range s.recs {
		if r.TenantID == tenantID {
			out = append(out, *r)
		}
	}
	return out
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []subscription.HistoryEntry
}

func (s *fakeHistoryStore) Append(ctx context.Context, entry *subscription.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeHistoryStore) List(ctx context.Context, tenantID uuid.UUID, page subscription.Page) ([]subscription.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscription.HistoryEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if e := s.entries[i]; e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	if page.Offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[page.Offset:]
	if int64(len(out)) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

type fakeAddonStore struct {
	mu   sync.Mutex
	recs []subscription.AddonRecord
}

func (s *fakeAddonStore) Insert(ctx context.Context, rec *subscription.AddonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if rec.PaymentID != "" && r.PaymentID == rec.PaymentID {
			return subscription.ErrDuplicatePayment
		}
	}
	s.recs = append(s.recs, *rec)
	return nil
}

func (s *fakeAddonStore) ByPaymentID(ctx context.Context, paymentID string) (*subscription.AddonRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if paymentID != "" && r.PaymentID == paymentID {
			cp := r
			return &cp, nil
		}
	}
	return nil, subscription.ErrRecordNotFound
}

func (s *fakeAddonStore) ValidBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]subscription.AddonRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscription.AddonRecord
	for _, r := range s.recs {
		if r.TenantID == tenantID && r.ValidFor(from, to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeAddonStore) List(ctx context.Context, tenantID uuid.UUID, page subscription.Page) ([]subscription.AddonRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []subscription.AddonRecord
	for _, r := range s.recs {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if page.Offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[page.Offset:]
	if int64(len(out)) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

type fakeProfileStore struct {
	mu      sync.Mutex
	profile subscription.BillingProfile
	seq     int64
}

func (s *fakeProfileStore) Current(ctx context.Context) (*subscription.BillingProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := s.profile
	return &cp, nil
}

func (s *fakeProfileStore) NextInvoiceSeq(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

type fakeTenantStore struct {
	mu     sync.Mutex
	active map[uuid.UUID]uuid.UUID
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{active: make(map[uuid.UUID]uuid.UUID)}
}

func (s *fakeTenantStore) SetActiveSubscription(ctx context.Context, tenantID, recordID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[tenantID] = recordID
	return nil
}

func (s *fakeTenantStore) ClearActiveSubscription(ctx context.Context, tenantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, tenantID)
	return nil
}

func (s *fakeTenantStore) pointer(tenantID uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[tenantID]
	return id, ok
}
