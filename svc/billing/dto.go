package billing

import (
	"time"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
)

// Wire DTOs for the admin and dashboard endpoints. Domain types carry no
// JSON tags; the shapes below are the API contract.

type windowDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type limitDTO struct {
	Used      int64 `json:"used"`
	Base      int64 `json:"base"`
	Extra     int64 `json:"extra,omitempty"`
	Total     int64 `json:"total"`
	Unlimited bool  `json:"unlimited,omitempty"`
	Reached   bool  `json:"reached"`
	CanCreate bool  `json:"can_create"`
}

type statusDTO struct {
	PlanType  plan.Type           `json:"plan_type,omitempty"`
	IsTrial   bool                `json:"is_trial"`
	IsActive  bool                `json:"is_active"`
	IsExpired bool                `json:"is_expired"`
	Window    *windowDTO          `json:"window,omitempty"`
	Limits    map[string]limitDTO `json:"limits"`
	Modules   map[string]bool     `json:"modules"`
}

func toStatusDTO(st *subscription.Status) statusDTO {
	dto := statusDTO{
		PlanType:  st.PlanType,
		IsTrial:   st.IsTrial,
		IsActive:  st.IsActive,
		IsExpired: st.IsExpired,
		Limits:    make(map[string]limitDTO, len(st.Limits)),
		Modules:   make(map[string]bool, len(st.Modules)),
	}
	if st.Window != nil {
		dto.Window = &windowDTO{Start: st.Window.Start, End: st.Window.End}
	}
	for res, info := range st.Limits {
		dto.Limits[string(res)] = limitDTO{
			Used:      info.Used,
			Base:      info.Base,
			Extra:     info.Extra,
			Total:     info.Total,
			Unlimited: info.Unlimited,
			Reached:   info.Reached,
			CanCreate: info.CanCreate,
		}
	}
	for m, enabled := range st.Modules {
		dto.Modules[string(m)] = enabled
	}
	return dto
}

type recordDTO struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	PlanType      plan.Type  `json:"plan_type"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	IsActive      bool       `json:"is_active"`
	PaymentStatus string     `json:"payment_status"`
	TrialDays     int        `json:"trial_days,omitempty"`
	OrderID       string     `json:"order_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

func toRecordDTO(rec *subscription.Record) recordDTO {
	return recordDTO{
		ID:            rec.ID.String(),
		TenantID:      rec.TenantID.String(),
		PlanType:      rec.PlanType,
		StartDate:     rec.StartDate,
		EndDate:       rec.EndDate,
		IsActive:      rec.IsActive,
		PaymentStatus: string(rec.PaymentStatus),
		TrialDays:     rec.TrialDays,
		OrderID:       rec.OrderID,
		CreatedAt:     rec.CreatedAt,
		CancelledAt:   rec.DeletedAt,
	}
}

type historyDTO struct {
	ID            string    `json:"id"`
	PlanType      plan.Type `json:"plan_type"`
	InvoiceNumber string    `json:"invoice_number"`
	PurchasedAt   time.Time `json:"purchased_at"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	TaxAmount     int64     `json:"tax_amount"`
	TaxPercent    float64   `json:"tax_percent"`
	PaymentStatus string    `json:"payment_status"`
	OrderID       string    `json:"order_id,omitempty"`
	Source        string    `json:"source"`
}

func toHistoryDTOs(entries []subscription.HistoryEntry) []historyDTO {
	out := make([]historyDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyDTO{
			ID:            e.ID.String(),
			PlanType:      e.PlanType,
			InvoiceNumber: e.InvoiceNumber,
			PurchasedAt:   e.PurchasedAt,
			StartDate:     e.StartDate,
			EndDate:       e.EndDate,
			Amount:        e.Amount,
			Currency:      e.Currency,
			TaxAmount:     e.TaxAmount,
			TaxPercent:    e.TaxPercent,
			PaymentStatus: string(e.PaymentStatus),
			OrderID:       e.OrderID,
			Source:        string(e.Source),
		})
	}
	return out
}

type addonDTO struct {
	ID            string    `json:"id"`
	AddonID       string    `json:"addon_id"`
	Resource      string    `json:"resource"`
	Quantity      int64     `json:"quantity"`
	PaymentStatus string    `json:"payment_status"`
	OrderID       string    `json:"order_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAddonDTOs(recs []subscription.AddonRecord) []addonDTO {
	out := make([]addonDTO, 0, len(recs))
	for _, a := range recs {
		out = append(out, addonDTO{
			ID:            a.ID.String(),
			AddonID:       a.AddonID,
			Resource:      string(a.Resource),
			Quantity:      a.Quantity,
			PaymentStatus: string(a.PaymentStatus),
			OrderID:       a.OrderID,
			IsActive:      a.IsActive,
			CreatedAt:     a.CreatedAt,
		})
	}
	return out
}

type planDTO struct {
	Type       plan.Type        `json:"type"`
	Name       string           `json:"name"`
	Limits     map[string]int64 `json:"limits"`
	Modules    []string         `json:"modules"`
	Amount     int64            `json:"amount"`
	Currency   string           `json:"currency"`
	TaxPercent float64          `json:"tax_percent,omitempty"`
	TrialDays  int              `json:"trial_days,omitempty"`
}

func toPlanDTO(p plan.Plan) planDTO {
	dto := planDTO{
		Type:       p.Type,
		Name:       p.Name,
		Limits:     make(map[string]int64, len(p.Limits)),
		Modules:    make([]string, 0, len(p.Modules)),
		Amount:     p.Price.Amount,
		Currency:   p.Price.Currency,
		TaxPercent: p.TaxPercent,
		TrialDays:  p.TrialDays,
	}
	for res, limit := range p.Limits {
		dto.Limits[string(res)] = limit
	}
	for _, m := range p.Modules {
		dto.Modules = append(dto.Modules, string(m))
	}
	return dto
}
