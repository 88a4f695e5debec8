package usecases

import "errors"

// ErrInvalidState signals client misuse of the connection lifecycle, e.g.
// a scan confirmation with no prior QR request. Not retryable.
var ErrInvalidState = errors.New("invalid connection state for this operation")

// ErrTenantNotFound is returned when an operation references a tenant id
// with no matching record.
var ErrTenantNotFound = errors.New("tenant not found")
