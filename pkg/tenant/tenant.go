package tenant

import "github.com/google/uuid"

// Identity is the resolved acting tenant for a caller. Employees act on
// behalf of the tenant that owns their account and share its quota; account
// owners resolve to themselves.
type Identity struct {
	TenantID   uuid.UUID
	IsEmployee bool
}
