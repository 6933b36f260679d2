package tracking

import (
	"errors"
	"time"
)

var (
	// ErrInvalidOperation is returned when a lifecycle transition is not permitted.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidArgument marks a precondition violation by the caller.
	ErrInvalidArgument = errors.New("invalid argument")
)

func isUTC(t time.Time) bool {
	return !t.IsZero() && t.Location() == time.UTC
}
