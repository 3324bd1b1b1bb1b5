package domain

import "errors"

// Failure classes. Callers wrap them with context and classify with errors.Is.
var (
	// ErrInvalidInput marks a bad coordinate, date or request value. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFetch marks a transport, timeout or upstream server failure.
	ErrFetch = errors.New("irradiance fetch failed")
	// ErrNoData marks a window for which the source has no valid reading.
	ErrNoData = errors.New("no irradiance data")
	// ErrInvalidParameter marks an ROI parameter outside its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
)
