package storefront

import "errors"

var (
	// ErrNotFound is returned on a 404 from the storefront.
	ErrNotFound = errors.New("storefront: not found")

	// ErrConflict is returned on a 409, booking/create uses it for a slot that filled up.
	ErrConflict = errors.New("storefront: conflict")

	// ErrRejected covers other 4xx answers (validation refused, bad request).
	ErrRejected = errors.New("storefront: request rejected")

	ErrUnexpectedStatus = errors.New("storefront: unexpected status")
	ErrTransport        = errors.New("storefront: transport error")
	ErrInvalidResponse  = errors.New("storefront: invalid response")
)
