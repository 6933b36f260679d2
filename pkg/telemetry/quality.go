package telemetry

type FixQuality string

const (
	FixQualityUnknown      FixQuality = "unknown"
	FixQualityAutonomous   FixQuality = "autonomous"
	FixQualityDifferential FixQuality = "differential"
	FixQualityRtkFixed     FixQuality = "rtk_fixed"
	FixQualityRtkFloat     FixQuality = "rtk_float"
)

func (q FixQuality) Valid() bool {
	switch q {
	case FixQualityUnknown, FixQualityAutonomous, FixQualityDifferential, FixQualityRtkFixed, FixQualityRtkFloat:
		return true
	}

	return false
}

type Source string

const (
	SourceDevice  Source = "device"
	SourceGateway Source = "gateway"
	SourceManual  Source = "manual"
)

func (s Source) Valid() bool {
	switch s {
	case SourceDevice, SourceGateway, SourceManual:
		return true
	}

	return false
}
