package availability

import "errors"

var (
	ErrInvalidLocation = errors.New("availability: location id is required")
	ErrInvalidDate     = errors.New("availability: date must be YYYY-MM-DD")

	// ErrFetchFailed wraps transport failures, non-2xx answers and timeouts.
	ErrFetchFailed = errors.New("availability: fetch failed")
)
