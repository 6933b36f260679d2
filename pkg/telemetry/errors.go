package telemetry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidValue is matched by every ValidationError via errors.Is.
var ErrInvalidValue = errors.New("invalid telemetry value")

type Reason string

const (
	ReasonNaN        Reason = "nan"
	ReasonInfinite   Reason = "infinite"
	ReasonOutOfRange Reason = "out_of_range"
	ReasonEmpty      Reason = "empty"
	ReasonTooLong    Reason = "too_long"
)

// ValidationError describes a raw value rejected by one of the factories in this package.
type ValidationError struct {
	Field  string
	Reason Reason
	Value  interface{}
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s", e.Field, e.Detail)
	}

	return fmt.Sprintf("%s is invalid (%s)", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidValue
}

func checkFinite(field string, value float64) error {
	if math.IsNaN(value) {
		return &ValidationError{Field: field, Reason: ReasonNaN, Value: value, Detail: "cannot be NaN"}
	}
	if math.IsInf(value, 0) {
		return &ValidationError{Field: field, Reason: ReasonInfinite, Value: value, Detail: "cannot be infinite"}
	}

	return nil
}

func outOfRange(field string, value interface{}, detail string) error {
	return &ValidationError{Field: field, Reason: ReasonOutOfRange, Value: value, Detail: detail}
}

func nonNegative(field string, value float64) error {
	if err := checkFinite(field, value); err != nil {
		return err
	}
	if value < 0 {
		return outOfRange(field, value, "must be >= 0")
	}

	return nil
}
