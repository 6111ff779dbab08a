package core

import (
	"context"
	"errors"

	"github.com/visitdesk/visitdesk/pkg/plan"
	"github.com/visitdesk/visitdesk/pkg/subscription"
	"github.com/visitdesk/visitdesk/pkg/tenant"
)

// ErrorFrom translates domain errors into HTTP errors. Unrecognized errors
// map to 500 so storage and provider failures never pick an accidental
// client-facing status.
func ErrorFrom(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var limitErr *subscription.LimitError
	if errors.As(err, &limitErr) {
		return HTTPError{Code: ErrPaymentRequired.Code, Key: limitKey(limitErr)}
	}

	switch {
	case errors.Is(err, subscription.ErrRecordNotFound),
		errors.Is(err, subscription.ErrProfileNotFound),
		errors.Is(err, plan.ErrNotFound),
		errors.Is(err, plan.ErrAddonNotFound),
		errors.Is(err, tenant.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, subscription.ErrModuleNotIncluded):
		return ErrForbidden
	case errors.Is(err, subscription.ErrDuplicatePayment):
		return ErrConflict
	case errors.Is(err, context.DeadlineExceeded):
		return ErrServiceUnavailable
	default:
		return ErrInternalServerError
	}
}

func limitKey(e *subscription.LimitError) string {
	if e.Reason == subscription.ReasonExpired {
		return "subscription_expired"
	}
	return "plan_limit_reached"
}
