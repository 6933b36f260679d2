package telemetry

import (
	"strings"
	"unicode/utf8"
)

const MaxCorrelationIDLength = 128

// DeviceSequence is a device-local counter used only to break device time ties.
type DeviceSequence struct {
	value int64
}

func DeviceSequenceFrom(value int64) (DeviceSequence, error) {
	if value < 0 {
		return DeviceSequence{}, outOfRange("deviceSequence", value, "must be >= 0")
	}

	return DeviceSequence{value: value}, nil
}

func DeviceSequenceFromNullable(value *int64) (*DeviceSequence, error) {
	return fromNullable(value, DeviceSequenceFrom)
}

func (s DeviceSequence) Int64() int64 { return s.value }

// CorrelationID is a client supplied trace token. It is never used for deduplication.
type CorrelationID struct {
	value string
}

func CorrelationIDFrom(value string) (CorrelationID, error) {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		return CorrelationID{}, &ValidationError{Field: "correlationId", Reason: ReasonEmpty, Value: value, Detail: "cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxCorrelationIDLength {
		return CorrelationID{}, &ValidationError{Field: "correlationId", Reason: ReasonTooLong, Value: value, Detail: "must be 128 characters or fewer"}
	}

	return CorrelationID{value: trimmed}, nil
}

func CorrelationIDFromNullable(value *string) (*CorrelationID, error) {
	return fromNullable(value, CorrelationIDFrom)
}

func (c CorrelationID) String() string { return c.value }
