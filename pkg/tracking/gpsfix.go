package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/telemetry"
)

// GpsFix is one position sample reported by a device. It is immutable once built.
type GpsFix struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	vehicleID uuid.UUID

	latitude  telemetry.Latitude
	longitude telemetry.Longitude

	deviceTimeUTC time.Time
	receivedAtUTC time.Time

	source         telemetry.Source
	deviceSequence *telemetry.DeviceSequence

	speed    *telemetry.SpeedKph
	heading  *telemetry.HeadingDegrees
	accuracy *telemetry.AccuracyMeters
	altitude *telemetry.AltitudeMeters
	odometer *telemetry.OdometerKm

	quality       telemetry.FixQuality
	correlationID telemetry.CorrelationID
}

type GpsFixParams struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	VehicleID uuid.UUID

	Latitude  telemetry.Latitude
	Longitude telemetry.Longitude

	DeviceTimeUTC time.Time
	ReceivedAtUTC time.Time

	Source         telemetry.Source
	DeviceSequence *telemetry.DeviceSequence

	Speed    *telemetry.SpeedKph
	Heading  *telemetry.HeadingDegrees
	Accuracy *telemetry.AccuracyMeters
	Altitude *telemetry.AltitudeMeters
	Odometer *telemetry.OdometerKm

	Quality       telemetry.FixQuality
	CorrelationID telemetry.CorrelationID
}

func NewGpsFix(params GpsFixParams) (*GpsFix, error) {
	if params.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: gps fix id is required", ErrInvalidArgument)
	}
	if params.TenantID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidArgument)
	}
	if params.VehicleID == uuid.Nil {
		return nil, fmt.Errorf("%w: vehicle id is required", ErrInvalidArgument)
	}
	if !isUTC(params.DeviceTimeUTC) {
		return nil, fmt.Errorf("%w: deviceTimeUtc must be UTC", ErrInvalidArgument)
	}
	if !isUTC(params.ReceivedAtUTC) {
		return nil, fmt.Errorf("%w: receivedAtUtc must be UTC", ErrInvalidArgument)
	}
	if params.CorrelationID.String() == "" {
		return nil, fmt.Errorf("%w: correlation id is required", ErrInvalidArgument)
	}

	source := params.Source
	if source == "" {
		source = telemetry.SourceDevice
	}
	if !source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidArgument, source)
	}

	quality := params.Quality
	if quality == "" {
		quality = telemetry.FixQualityUnknown
	}
	if !quality.Valid() {
		return nil, fmt.Errorf("%w: unknown fix quality %q", ErrInvalidArgument, quality)
	}

	return &GpsFix{
		id:             params.ID,
		tenantID:       params.TenantID,
		vehicleID:      params.VehicleID,
		latitude:       params.Latitude,
		longitude:      params.Longitude,
		deviceTimeUTC:  params.DeviceTimeUTC,
		receivedAtUTC:  params.ReceivedAtUTC,
		source:         source,
		deviceSequence: clone(params.DeviceSequence),
		speed:          clone(params.Speed),
		heading:        clone(params.Heading),
		accuracy:       clone(params.Accuracy),
		altitude:       clone(params.Altitude),
		odometer:       clone(params.Odometer),
		quality:        quality,
		correlationID:  params.CorrelationID,
	}, nil
}

func (f *GpsFix) ID() uuid.UUID                          { return f.id }
func (f *GpsFix) TenantID() uuid.UUID                    { return f.tenantID }
func (f *GpsFix) VehicleID() uuid.UUID                   { return f.vehicleID }
func (f *GpsFix) Latitude() telemetry.Latitude           { return f.latitude }
func (f *GpsFix) Longitude() telemetry.Longitude         { return f.longitude }
func (f *GpsFix) DeviceTimeUTC() time.Time               { return f.deviceTimeUTC }
func (f *GpsFix) ReceivedAtUTC() time.Time               { return f.receivedAtUTC }
func (f *GpsFix) Source() telemetry.Source               { return f.source }
func (f *GpsFix) Quality() telemetry.FixQuality          { return f.quality }
func (f *GpsFix) CorrelationID() telemetry.CorrelationID { return f.correlationID }

func (f *GpsFix) DeviceSequence() *telemetry.DeviceSequence { return clone(f.deviceSequence) }
func (f *GpsFix) Speed() *telemetry.SpeedKph                { return clone(f.speed) }
func (f *GpsFix) Heading() *telemetry.HeadingDegrees        { return clone(f.heading) }
func (f *GpsFix) Accuracy() *telemetry.AccuracyMeters       { return clone(f.accuracy) }
func (f *GpsFix) Altitude() *telemetry.AltitudeMeters       { return clone(f.altitude) }
func (f *GpsFix) Odometer() *telemetry.OdometerKm           { return clone(f.odometer) }

// OrderKey returns the fields used to order this fix against others for the same vehicle.
func (f *GpsFix) OrderKey() OrderKey {
	var sequence int64
	if f.deviceSequence != nil {
		sequence = f.deviceSequence.Int64()
	}

	return OrderKey{DeviceTime: f.deviceTimeUTC, Sequence: sequence}
}

func clone[T any](value *T) *T {
	if value == nil {
		return nil
	}

	copied := *value
	return &copied
}
