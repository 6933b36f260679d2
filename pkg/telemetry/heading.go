package telemetry

import "math"

const (
	MinHeadingInclusive = 0.0
	MaxHeadingExclusive = 360.0

	maxClampedHeading = 359.999999
)

var (
	North = HeadingDegrees{value: 0}
	East  = HeadingDegrees{value: 90}
	South = HeadingDegrees{value: 180}
	West  = HeadingDegrees{value: 270}
)

// HeadingDegrees is a compass bearing in the half-open range [0, 360).
type HeadingDegrees struct {
	value float64
}

// HeadingFrom is the strict factory used on the ingestion path.
func HeadingFrom(value float64) (HeadingDegrees, error) {
	if err := checkFinite("headingDegrees", value); err != nil {
		return HeadingDegrees{}, err
	}
	if value < MinHeadingInclusive || value >= MaxHeadingExclusive {
		return HeadingDegrees{}, outOfRange("headingDegrees", value, "must be in range [0, 360)")
	}

	return HeadingDegrees{value: value}, nil
}

func HeadingFromNullable(value *float64) (*HeadingDegrees, error) {
	return fromNullable(value, HeadingFrom)
}

// HeadingFromAllow360 accepts exactly 360 as north, everything else is strict.
func HeadingFromAllow360(value float64) (HeadingDegrees, error) {
	if err := checkFinite("headingDegrees", value); err != nil {
		return HeadingDegrees{}, err
	}
	if value == MaxHeadingExclusive {
		return North, nil
	}

	return HeadingFrom(value)
}

// WrapHeading normalises any finite bearing into [0, 360).
func WrapHeading(value float64) (HeadingDegrees, error) {
	if err := checkFinite("headingDegrees", value); err != nil {
		return HeadingDegrees{}, err
	}

	normalised := math.Mod(value, MaxHeadingExclusive)
	if normalised < 0 {
		normalised += MaxHeadingExclusive
	}
	if normalised >= MaxHeadingExclusive {
		normalised = 0
	}

	return HeadingDegrees{value: normalised}, nil
}

func ClampHeading(value float64) (HeadingDegrees, error) {
	if err := checkFinite("headingDegrees", value); err != nil {
		return HeadingDegrees{}, err
	}

	switch {
	case value < MinHeadingInclusive:
		return North, nil
	case value >= MaxHeadingExclusive:
		return HeadingDegrees{value: maxClampedHeading}, nil
	default:
		return HeadingDegrees{value: value}, nil
	}
}

func (h HeadingDegrees) Float64() float64 { return h.value }

func (h HeadingDegrees) Radians() float64 {
	return h.value * (math.Pi / 180)
}

// SmallestDifferenceTo returns the absolute angle between two headings, never more than 180.
func (h HeadingDegrees) SmallestDifferenceTo(other HeadingDegrees) float64 {
	diff := math.Mod(math.Abs(h.value-other.value), MaxHeadingExclusive)
	if diff > 180 {
		return MaxHeadingExclusive - diff
	}

	return diff
}

func (h HeadingDegrees) AddWrapped(delta float64) (HeadingDegrees, error) {
	return WrapHeading(h.value + delta)
}
