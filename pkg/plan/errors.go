package plan

import "errors"

var (
	ErrNotFound             = errors.New("plan not found")
	ErrAddonNotFound        = errors.New("addon not found")
	ErrInvalidConfiguration = errors.New("invalid plan configuration")
	ErrFailedToLoadCatalog  = errors.New("failed to load plan catalog")
)
