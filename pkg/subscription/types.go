package subscription

// PaymentStatus represents the payment outcome recorded on a subscription
// segment, add-on purchase or history entry.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusSucceeded PaymentStatus = "succeeded"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

// Source records which actor produced a subscription transition.
type Source string

const (
	SourceUser   Source = "user"
	SourceAdmin  Source = "admin"
	SourceSystem Source = "system"
)

// Page describes a limit/offset page for ledger listings.
type Page struct {
	Limit  int64
	Offset int64
}

const (
	defaultPageLimit int64 = 20
	maxPageLimit     int64 = 100
)

// normalize clamps the page to sane bounds.
func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
