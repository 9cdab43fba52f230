package interfaces

import "errors"

var (
	// ErrNotFound is returned when a record or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a request the caller must fix (missing username,
	// empty or oversized upload, bad parameters).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidImage marks a photo the vision model refused (blurry, not food).
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnavailable marks a dependency that is not configured.
	ErrUnavailable = errors.New("service unavailable")
)
