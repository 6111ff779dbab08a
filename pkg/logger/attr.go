package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// TenantID records the tenant identifier under the key "tenant_id".
// If id is nil, it returns an empty Attr.
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// PaymentID records the external payment identifier under the key "payment_id".
func PaymentID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("payment_id", id)
}

// InvoiceNumber records the invoice number under the key "invoice_number".
func InvoiceNumber(n string) slog.Attr {
	return slog.String("invoice_number", n)
}

// PlanType records the plan type under the key "plan_type".
func PlanType(t string) slog.Attr {
	return slog.String("plan_type", t)
}

// Resource records the resource type under the key "resource".
func Resource(r string) slog.Attr {
	return slog.String("resource", r)
}

// Count records a result count under the key "count".
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
