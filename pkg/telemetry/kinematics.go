package telemetry

type SpeedKph struct {
	value float64
}

func SpeedKphFrom(value float64) (SpeedKph, error) {
	if err := nonNegative("speedKph", value); err != nil {
		return SpeedKph{}, err
	}

	return SpeedKph{value: value}, nil
}

func SpeedKphFromNullable(value *float64) (*SpeedKph, error) {
	return fromNullable(value, SpeedKphFrom)
}

func (s SpeedKph) Float64() float64 { return s.value }

type AccuracyMeters struct {
	value float64
}

func AccuracyMetersFrom(value float64) (AccuracyMeters, error) {
	if err := nonNegative("accuracyMeters", value); err != nil {
		return AccuracyMeters{}, err
	}

	return AccuracyMeters{value: value}, nil
}

func AccuracyMetersFromNullable(value *float64) (*AccuracyMeters, error) {
	return fromNullable(value, AccuracyMetersFrom)
}

func (a AccuracyMeters) Float64() float64 { return a.value }

type OdometerKm struct {
	value float64
}

func OdometerKmFrom(value float64) (OdometerKm, error) {
	if err := nonNegative("odometerKm", value); err != nil {
		return OdometerKm{}, err
	}

	return OdometerKm{value: value}, nil
}

func OdometerKmFromNullable(value *float64) (*OdometerKm, error) {
	return fromNullable(value, OdometerKmFrom)
}

func (o OdometerKm) Float64() float64 { return o.value }

// AltitudeMeters has no bounds, negative values are below sea level.
type AltitudeMeters struct {
	value float64
}

func AltitudeMetersFrom(value float64) (AltitudeMeters, error) {
	if err := checkFinite("altitudeMeters", value); err != nil {
		return AltitudeMeters{}, err
	}

	return AltitudeMeters{value: value}, nil
}

func AltitudeMetersFromNullable(value *float64) (*AltitudeMeters, error) {
	return fromNullable(value, AltitudeMetersFrom)
}

func (a AltitudeMeters) Float64() float64 { return a.value }

func fromNullable[R any, T any](value *R, from func(R) (T, error)) (*T, error) {
	if value == nil {
		return nil, nil
	}

	converted, err := from(*value)
	if err != nil {
		return nil, err
	}

	return &converted, nil
}
