package telemetry

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

type Latitude struct {
	value float64
}

func LatitudeFrom(value float64) (Latitude, error) {
	if err := checkFinite("latitude", value); err != nil {
		return Latitude{}, err
	}
	if value < MinLatitude || value > MaxLatitude {
		return Latitude{}, outOfRange("latitude", value, "must be in range [-90, 90]")
	}

	return Latitude{value: value}, nil
}

func (l Latitude) Float64() float64 { return l.value }

type Longitude struct {
	value float64
}

func LongitudeFrom(value float64) (Longitude, error) {
	if err := checkFinite("longitude", value); err != nil {
		return Longitude{}, err
	}
	if value < MinLongitude || value > MaxLongitude {
		return Longitude{}, outOfRange("longitude", value, "must be in range [-180, 180]")
	}

	return Longitude{value: value}, nil
}

func (l Longitude) Float64() float64 { return l.value }
