package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/telemetry"
)

// VehicleLatestLocation is the single row projection of a vehicle's most recent accepted fix.
// It is always replaced whole, never updated field by field.
type VehicleLatestLocation struct {
	tenantID  uuid.UUID
	vehicleID uuid.UUID
	gpsFixID  uuid.UUID

	deviceTimeUTC  time.Time
	receivedAtUTC  time.Time
	deviceSequence int64

	latitude  float64
	longitude float64

	speedKph       *float64
	headingDegrees *float64
	accuracyMeters *float64

	routeScheduleID *uuid.UUID

	updatedAtUTC time.Time
}

type VehicleLatestLocationParams struct {
	TenantID  uuid.UUID
	VehicleID uuid.UUID
	GpsFixID  uuid.UUID

	DeviceTimeUTC  time.Time
	ReceivedAtUTC  time.Time
	DeviceSequence int64

	Latitude  float64
	Longitude float64

	SpeedKph       *float64
	HeadingDegrees *float64
	AccuracyMeters *float64

	RouteScheduleID *uuid.UUID

	UpdatedAtUTC time.Time
}

func NewVehicleLatestLocation(params VehicleLatestLocationParams) (*VehicleLatestLocation, error) {
	if params.TenantID == uuid.Nil || params.VehicleID == uuid.Nil || params.GpsFixID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant, vehicle and gps fix ids are required", ErrInvalidArgument)
	}
	for name, value := range map[string]time.Time{
		"deviceTimeUtc": params.DeviceTimeUTC,
		"receivedAtUtc": params.ReceivedAtUTC,
		"updatedAtUtc":  params.UpdatedAtUTC,
	} {
		if !isUTC(value) {
			return nil, fmt.Errorf("%w: %s must be UTC", ErrInvalidArgument, name)
		}
	}
	if params.DeviceSequence < 0 {
		return nil, fmt.Errorf("%w: deviceSequence must be >= 0", ErrInvalidArgument)
	}
	if _, err := telemetry.LatitudeFrom(params.Latitude); err != nil {
		return nil, err
	}
	if _, err := telemetry.LongitudeFrom(params.Longitude); err != nil {
		return nil, err
	}

	return &VehicleLatestLocation{
		tenantID:        params.TenantID,
		vehicleID:       params.VehicleID,
		gpsFixID:        params.GpsFixID,
		deviceTimeUTC:   params.DeviceTimeUTC,
		receivedAtUTC:   params.ReceivedAtUTC,
		deviceSequence:  params.DeviceSequence,
		latitude:        params.Latitude,
		longitude:       params.Longitude,
		speedKph:        clone(params.SpeedKph),
		headingDegrees:  clone(params.HeadingDegrees),
		accuracyMeters:  clone(params.AccuracyMeters),
		routeScheduleID: clone(params.RouteScheduleID),
		updatedAtUTC:    params.UpdatedAtUTC,
	}, nil
}

func (l *VehicleLatestLocation) TenantID() uuid.UUID      { return l.tenantID }
func (l *VehicleLatestLocation) VehicleID() uuid.UUID     { return l.vehicleID }
func (l *VehicleLatestLocation) GpsFixID() uuid.UUID      { return l.gpsFixID }
func (l *VehicleLatestLocation) DeviceTimeUTC() time.Time { return l.deviceTimeUTC }
func (l *VehicleLatestLocation) ReceivedAtUTC() time.Time { return l.receivedAtUTC }
func (l *VehicleLatestLocation) DeviceSequence() int64    { return l.deviceSequence }
func (l *VehicleLatestLocation) Latitude() float64        { return l.latitude }
func (l *VehicleLatestLocation) Longitude() float64       { return l.longitude }
func (l *VehicleLatestLocation) UpdatedAtUTC() time.Time  { return l.updatedAtUTC }

func (l *VehicleLatestLocation) SpeedKph() *float64           { return clone(l.speedKph) }
func (l *VehicleLatestLocation) HeadingDegrees() *float64     { return clone(l.headingDegrees) }
func (l *VehicleLatestLocation) AccuracyMeters() *float64     { return clone(l.accuracyMeters) }
func (l *VehicleLatestLocation) RouteScheduleID() *uuid.UUID { return clone(l.routeScheduleID) }

func (l *VehicleLatestLocation) OrderKey() OrderKey {
	return OrderKey{DeviceTime: l.deviceTimeUTC, Sequence: l.deviceSequence}
}

// Params returns a copy of the snapshot fields, used by storage adapters.
func (l *VehicleLatestLocation) Params() VehicleLatestLocationParams {
	return VehicleLatestLocationParams{
		TenantID:        l.tenantID,
		VehicleID:       l.vehicleID,
		GpsFixID:        l.gpsFixID,
		DeviceTimeUTC:   l.deviceTimeUTC,
		ReceivedAtUTC:   l.receivedAtUTC,
		DeviceSequence:  l.deviceSequence,
		Latitude:        l.latitude,
		Longitude:       l.longitude,
		SpeedKph:        clone(l.speedKph),
		HeadingDegrees:  clone(l.headingDegrees),
		AccuracyMeters:  clone(l.accuracyMeters),
		RouteScheduleID: clone(l.routeScheduleID),
		UpdatedAtUTC:    l.updatedAtUTC,
	}
}
