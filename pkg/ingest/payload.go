package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/telemetry"
	"github.com/travigo/geotrack/pkg/tracking"
)

// FixPayload is a raw, unvalidated fix as submitted by a caller.
type FixPayload struct {
	Latitude  float64
	Longitude float64

	// DeviceTimeUTC must carry the time.UTC location. Times parsed with an offset,
	// even a zero one, are rejected.
	DeviceTimeUTC  time.Time
	DeviceSequence *int64

	SpeedKph       *float64
	HeadingDegrees *float64
	AccuracyMeters *float64
	AltitudeMeters *float64
	OdometerKm     *float64

	CorrelationID string

	Source  telemetry.Source
	Quality telemetry.FixQuality
}

type BatchItem struct {
	VehicleID uuid.UUID
	Payload   FixPayload
}

// checkPayload runs the operator level checks shared by the single and batch paths.
// Range checks beyond these are left to the value types.
func checkPayload(payload FixPayload) *Rejection {
	if payload.DeviceTimeUTC.IsZero() || payload.DeviceTimeUTC.Location() != time.UTC {
		return rejectWithDefault(CodeInvalidDeviceTime)
	}
	if payload.HeadingDegrees != nil && *payload.HeadingDegrees >= telemetry.MaxHeadingExclusive {
		return rejectWithDefault(CodeInvalidHeading)
	}
	if strings.TrimSpace(payload.CorrelationID) == "" {
		return rejectWithDefault(CodeMissingCorrelationID)
	}

	return nil
}

// buildFix converts a checked payload into a GpsFix. Any value type failure is reported
// as invalid_payload carrying the validation message.
func buildFix(id, tenantID, vehicleID uuid.UUID, receivedAt time.Time, payload FixPayload) (*tracking.GpsFix, *Rejection) {
	invalid := func(err error) *Rejection {
		return reject(CodeInvalidPayload, err.Error())
	}

	latitude, err := telemetry.LatitudeFrom(payload.Latitude)
	if err != nil {
		return nil, invalid(err)
	}
	longitude, err := telemetry.LongitudeFrom(payload.Longitude)
	if err != nil {
		return nil, invalid(err)
	}
	sequence, err := telemetry.DeviceSequenceFromNullable(payload.DeviceSequence)
	if err != nil {
		return nil, invalid(err)
	}
	speed, err := telemetry.SpeedKphFromNullable(payload.SpeedKph)
	if err != nil {
		return nil, invalid(err)
	}
	heading, err := telemetry.HeadingFromNullable(payload.HeadingDegrees)
	if err != nil {
		return nil, invalid(err)
	}
	accuracy, err := telemetry.AccuracyMetersFromNullable(payload.AccuracyMeters)
	if err != nil {
		return nil, invalid(err)
	}
	altitude, err := telemetry.AltitudeMetersFromNullable(payload.AltitudeMeters)
	if err != nil {
		return nil, invalid(err)
	}
	odometer, err := telemetry.OdometerKmFromNullable(payload.OdometerKm)
	if err != nil {
		return nil, invalid(err)
	}
	correlationID, err := telemetry.CorrelationIDFrom(payload.CorrelationID)
	if err != nil {
		return nil, invalid(err)
	}

	fix, err := tracking.NewGpsFix(tracking.GpsFixParams{
		ID:             id,
		TenantID:       tenantID,
		VehicleID:      vehicleID,
		Latitude:       latitude,
		Longitude:      longitude,
		DeviceTimeUTC:  payload.DeviceTimeUTC,
		ReceivedAtUTC:  receivedAt,
		Source:         payload.Source,
		DeviceSequence: sequence,
		Speed:          speed,
		Heading:        heading,
		Accuracy:       accuracy,
		Altitude:       altitude,
		Odometer:       odometer,
		Quality:        payload.Quality,
		CorrelationID:  correlationID,
	})
	if err != nil {
		return nil, invalid(err)
	}

	return fix, nil
}
