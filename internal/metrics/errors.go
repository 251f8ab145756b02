package metrics

import "errors"

var (
	// ErrInvalidInterval is returned by New for a non-positive window interval.
	ErrInvalidInterval = errors.New("window interval must be positive")
	// ErrInvalidUnit is returned for a timestamp unit other than milliseconds or nanoseconds.
	ErrInvalidUnit = errors.New("unsupported timestamp unit")
	// ErrNotStarted is returned by Stop when no message has been added yet.
	ErrNotStarted = errors.New("sampler not started")
)
