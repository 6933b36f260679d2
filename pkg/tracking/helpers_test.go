package tracking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/travigo/geotrack/pkg/telemetry"
)

var (
	testTenantID  = uuid.MustParse("7a0c1f0e-5f7e-4a3a-9d55-0c8d1b7e2f01")
	testVehicleID = uuid.MustParse("3f1b7d52-1c55-4d8c-9a3b-6e2d9f0a4b12")
	baseTime      = time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
)

type fixOption func(*GpsFixParams)

func withSequence(value int64) fixOption {
	return func(p *GpsFixParams) {
		seq, _ := telemetry.DeviceSequenceFrom(value)
		p.DeviceSequence = &seq
	}
}

func withReceivedAt(value time.Time) fixOption {
	return func(p *GpsFixParams) { p.ReceivedAtUTC = value }
}

func withSpeed(value float64) fixOption {
	return func(p *GpsFixParams) {
		speed, _ := telemetry.SpeedKphFrom(value)
		p.Speed = &speed
	}
}

func newTestFix(t *testing.T, deviceTime time.Time, opts ...fixOption) *GpsFix {
	t.Helper()

	lat, err := telemetry.LatitudeFrom(51.0)
	require.NoError(t, err)
	lon, err := telemetry.LongitudeFrom(-0.1)
	require.NoError(t, err)
	correlationID, err := telemetry.CorrelationIDFrom("a")
	require.NoError(t, err)

	params := GpsFixParams{
		ID:            uuid.New(),
		TenantID:      testTenantID,
		VehicleID:     testVehicleID,
		Latitude:      lat,
		Longitude:     lon,
		DeviceTimeUTC: deviceTime,
		ReceivedAtUTC: baseTime.Add(time.Hour),
		CorrelationID: correlationID,
	}
	for _, opt := range opts {
		opt(&params)
	}

	fix, err := NewGpsFix(params)
	require.NoError(t, err)

	return fix
}
