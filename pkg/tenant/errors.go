package tenant

import "errors"

var (
	// ErrUserNotFound is returned when no user record exists for the given id.
	ErrUserNotFound = errors.New("tenant: user not found")
	// ErrLookupFailed wraps storage failures during identity resolution.
	ErrLookupFailed = errors.New("tenant: identity lookup failed")
)
