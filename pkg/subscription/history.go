package subscription

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

// BillingSnapshot freezes the company billing details at purchase time so
// history entries stay accurate when the billing profile is later edited.
type BillingSnapshot struct {
	CompanyName string
	Address     string
	City        string
	Country     string
	VATNumber   string
	BankName    string
	BankAccount string
}

// BillingProfile holds the current company billing details and invoice
// numbering configuration. NextInvoiceNumber is informational; sequence
// allocation happens through an atomic increment at the store.
type BillingProfile struct {
	Snapshot          BillingSnapshot
	InvoicePrefix     string
	NextInvoiceNumber int64
}

// HistoryEntry is one immutable row in the subscription history ledger,
// appended on every completed purchase, assignment or cancellation. Entries
// are never mutated or deleted; the store interface exposes no update.
type HistoryEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	RecordID      uuid.UUID
	PlanType      plan.Type
	InvoiceNumber string
	PurchasedAt   time.Time
	StartDate     time.Time
	EndDate       time.Time
	Amount        int64 // smallest currency unit
	Currency      string
	TaxAmount     int64
	TaxPercent    float64
	PaymentStatus PaymentStatus
	OrderID       string
	PaymentID     string
	Source        Source
	Billing       BillingSnapshot
}

// FormatInvoiceNumber renders a sequential, human-readable invoice number:
// PREFIX-YYYYMM-00042.
func FormatInvoiceNumber(prefix string, seq int64, at time.Time) string {
	if prefix == "" {
		prefix = "INV"
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, at.Format("200601"), seq)
}
