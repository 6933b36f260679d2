package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/geotrack/pkg/telemetry"
)

func TestNewGpsFixDefaults(t *testing.T) {
	fix := newTestFix(t, baseTime)

	assert.Equal(t, telemetry.SourceDevice, fix.Source())
	assert.Equal(t, telemetry.FixQualityUnknown, fix.Quality())
	assert.Nil(t, fix.DeviceSequence())
	assert.Equal(t, OrderKey{DeviceTime: baseTime}, fix.OrderKey())
}

func TestNewGpsFixRequiresUTC(t *testing.T) {
	correlationID, _ := telemetry.CorrelationIDFrom("a")

	params := GpsFixParams{
		ID:            uuid.New(),
		TenantID:      testTenantID,
		VehicleID:     testVehicleID,
		DeviceTimeUTC: baseTime.In(time.FixedZone("", 0)),
		ReceivedAtUTC: baseTime,
		CorrelationID: correlationID,
	}

	_, err := NewGpsFix(params)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	params.DeviceTimeUTC = baseTime
	params.ReceivedAtUTC = time.Time{}
	_, err = NewGpsFix(params)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestNewGpsFixRequiresIdentifiers(t *testing.T) {
	correlationID, _ := telemetry.CorrelationIDFrom("a")

	_, err := NewGpsFix(GpsFixParams{
		ID:            uuid.New(),
		TenantID:      testTenantID,
		DeviceTimeUTC: baseTime,
		ReceivedAtUTC: baseTime,
		CorrelationID: correlationID,
	})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestGpsFixGettersReturnCopies(t *testing.T) {
	fix := newTestFix(t, baseTime, withSpeed(10))

	speed := fix.Speed()
	require.NotNil(t, speed)
	*speed, _ = telemetry.SpeedKphFrom(99)

	assert.Equal(t, 10.0, fix.Speed().Float64())
}
