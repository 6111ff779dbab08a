package subscription

import (
	"errors"
	"fmt"

	"github.com/visitdesk/visitdesk/pkg/plan"
)

var (
	ErrRecordNotFound  = errors.New("subscription record not found")
	ErrProfileNotFound = errors.New("billing profile not found")

	ErrModuleNotIncluded = errors.New("module not included in the active plan")

	// ErrDuplicatePayment is returned by stores when the unique index on the
	// external payment identifier rejects an insert. The engine converts it
	// into an idempotent no-op by returning the existing row.
	ErrDuplicatePayment = errors.New("duplicate payment identifier")

	ErrNoCounterRegistered = errors.New("no usage counter registered for resource")
	ErrNoPaymentProvider   = errors.New("no payment provider configured")
	ErrUsageCountFailed    = errors.New("failed to count resource usage")
)

// LimitReason distinguishes why a creation attempt was rejected.
type LimitReason string

const (
	ReasonExpired      LimitReason = "expired"
	ReasonLimitReached LimitReason = "limit_reached"
)

// LimitError is returned by the limit-enforcement gate. It maps to HTTP 402
// and carries an audience-aware message: account owners are told to renew or
// upgrade, employees are told to ask their admin.
type LimitError struct {
	Resource    plan.Resource
	Reason      LimitReason
	ForEmployee bool
}

func (e *LimitError) Error() string {
	switch {
	case e.Reason == ReasonExpired && e.ForEmployee:
		return "subscription expired: ask your admin to renew the plan"
	case e.Reason == ReasonExpired:
		return "subscription expired: renew your plan to continue"
	case e.ForEmployee:
		return fmt.Sprintf("plan limit reached for %s: ask your admin to upgrade the plan", e.Resource)
	default:
		return fmt.Sprintf("plan limit reached for %s: purchase an add-on or upgrade your plan", e.Resource)
	}
}
