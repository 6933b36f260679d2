package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/telemetry"
	"github.com/travigo/geotrack/pkg/tracking"
)

// BSON dates only keep milliseconds so device times, which decide ordering, are also
// stored as unix nanoseconds and read back from there.

type tenantDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdat"`
}

type vehicleDocument struct {
	ID                 string    `bson:"_id"`
	TenantID           string    `bson:"tenantid"`
	RegistrationNumber *string   `bson:"registrationnumber,omitempty"`
	Name               *string   `bson:"name,omitempty"`
	ExternalID         *string   `bson:"externalid,omitempty"`
	Status             int       `bson:"status"`
	CreatedAt          time.Time `bson:"createdat"`
}

func newVehicleDocument(vehicle *tracking.Vehicle) vehicleDocument {
	identity := vehicle.Identity()

	return vehicleDocument{
		ID:                 vehicle.ID().String(),
		TenantID:           vehicle.TenantID().String(),
		RegistrationNumber: identity.RegistrationNumber,
		Name:               identity.Name,
		ExternalID:         identity.ExternalID,
		Status:             int(vehicle.Status()),
		CreatedAt:          vehicle.CreatedAtUTC(),
	}
}

func (d vehicleDocument) vehicle() (*tracking.Vehicle, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("vehicle id %q: %w", d.ID, err)
	}
	tenantID, err := uuid.Parse(d.TenantID)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s tenant id %q: %w", d.ID, d.TenantID, err)
	}

	return tracking.RestoreVehicle(
		tenantID,
		id,
		tracking.NewVehicleIdentity(d.RegistrationNumber, d.Name, d.ExternalID),
		tracking.VehicleStatus(d.Status),
		d.CreatedAt.UTC(),
	)
}

type gpsFixDocument struct {
	ID              string    `bson:"_id"`
	TenantID        string    `bson:"tenantid"`
	VehicleID       string    `bson:"vehicleid"`
	Latitude        float64   `bson:"latitude"`
	Longitude       float64   `bson:"longitude"`
	DeviceTime      time.Time `bson:"devicetime"`
	DeviceTimeNanos int64     `bson:"devicetimenanos"`
	ReceivedAt      time.Time `bson:"receivedat"`
	DeviceSequence  *int64    `bson:"devicesequence,omitempty"`
	SpeedKph        *float64  `bson:"speedkph,omitempty"`
	HeadingDegrees  *float64  `bson:"headingdegrees,omitempty"`
	AccuracyMeters  *float64  `bson:"accuracymeters,omitempty"`
	AltitudeMeters  *float64  `bson:"altitudemeters,omitempty"`
	OdometerKm      *float64  `bson:"odometerkm,omitempty"`
	Source          string    `bson:"source"`
	Quality         string    `bson:"quality"`
	CorrelationID   string    `bson:"correlationid"`
}

func newGpsFixDocument(fix *tracking.GpsFix) gpsFixDocument {
	document := gpsFixDocument{
		ID:              fix.ID().String(),
		TenantID:        fix.TenantID().String(),
		VehicleID:       fix.VehicleID().String(),
		Latitude:        fix.Latitude().Float64(),
		Longitude:       fix.Longitude().Float64(),
		DeviceTime:      fix.DeviceTimeUTC(),
		DeviceTimeNanos: fix.DeviceTimeUTC().UnixNano(),
		ReceivedAt:      fix.ReceivedAtUTC(),
		Source:          string(fix.Source()),
		Quality:         string(fix.Quality()),
		CorrelationID:   fix.CorrelationID().String(),
	}

	if sequence := fix.DeviceSequence(); sequence != nil {
		value := sequence.Int64()
		document.DeviceSequence = &value
	}
	if speed := fix.Speed(); speed != nil {
		value := speed.Float64()
		document.SpeedKph = &value
	}
	if heading := fix.Heading(); heading != nil {
		value := heading.Float64()
		document.HeadingDegrees = &value
	}
	if accuracy := fix.Accuracy(); accuracy != nil {
		value := accuracy.Float64()
		document.AccuracyMeters = &value
	}
	if altitude := fix.Altitude(); altitude != nil {
		value := altitude.Float64()
		document.AltitudeMeters = &value
	}
	if odometer := fix.Odometer(); odometer != nil {
		value := odometer.Float64()
		document.OdometerKm = &value
	}

	return document
}

func (d gpsFixDocument) gpsFix() (*tracking.GpsFix, error) {
	ids, err := parseIDs(d.ID, d.TenantID, d.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("gps fix %s: %w", d.ID, err)
	}

	latitude, err := telemetry.LatitudeFrom(d.Latitude)
	if err != nil {
		return nil, err
	}
	longitude, err := telemetry.LongitudeFrom(d.Longitude)
	if err != nil {
		return nil, err
	}
	sequence, err := telemetry.DeviceSequenceFromNullable(d.DeviceSequence)
	if err != nil {
		return nil, err
	}
	speed, err := telemetry.SpeedKphFromNullable(d.SpeedKph)
	if err != nil {
		return nil, err
	}
	heading, err := telemetry.HeadingFromNullable(d.HeadingDegrees)
	if err != nil {
		return nil, err
	}
	accuracy, err := telemetry.AccuracyMetersFromNullable(d.AccuracyMeters)
	if err != nil {
		return nil, err
	}
	altitude, err := telemetry.AltitudeMetersFromNullable(d.AltitudeMeters)
	if err != nil {
		return nil, err
	}
	odometer, err := telemetry.OdometerKmFromNullable(d.OdometerKm)
	if err != nil {
		return nil, err
	}
	correlationID, err := telemetry.CorrelationIDFrom(d.CorrelationID)
	if err != nil {
		return nil, err
	}

	return tracking.NewGpsFix(tracking.GpsFixParams{
		ID:             ids[0],
		TenantID:       ids[1],
		VehicleID:      ids[2],
		Latitude:       latitude,
		Longitude:      longitude,
		DeviceTimeUTC:  time.Unix(0, d.DeviceTimeNanos).UTC(),
		ReceivedAtUTC:  d.ReceivedAt.UTC(),
		Source:         telemetry.Source(d.Source),
		DeviceSequence: sequence,
		Speed:          speed,
		Heading:        heading,
		Accuracy:       accuracy,
		Altitude:       altitude,
		Odometer:       odometer,
		Quality:        telemetry.FixQuality(d.Quality),
		CorrelationID:  correlationID,
	})
}

type latestLocationDocument struct {
	TenantID        string    `bson:"tenantid"`
	VehicleID       string    `bson:"vehicleid"`
	GpsFixID        string    `bson:"gpsfixid"`
	DeviceTime      time.Time `bson:"devicetime"`
	DeviceTimeNanos int64     `bson:"devicetimenanos"`
	ReceivedAt      time.Time `bson:"receivedat"`
	DeviceSequence  int64     `bson:"devicesequence"`
	Latitude        float64   `bson:"latitude"`
	Longitude       float64   `bson:"longitude"`
	SpeedKph        *float64  `bson:"speedkph,omitempty"`
	HeadingDegrees  *float64  `bson:"headingdegrees,omitempty"`
	AccuracyMeters  *float64  `bson:"accuracymeters,omitempty"`
	RouteScheduleID *string   `bson:"routescheduleid,omitempty"`
	UpdatedAt       time.Time `bson:"updatedat"`
}

func newLatestLocationDocument(snapshot *tracking.VehicleLatestLocation) latestLocationDocument {
	document := latestLocationDocument{
		TenantID:        snapshot.TenantID().String(),
		VehicleID:       snapshot.VehicleID().String(),
		GpsFixID:        snapshot.GpsFixID().String(),
		DeviceTime:      snapshot.DeviceTimeUTC(),
		DeviceTimeNanos: snapshot.DeviceTimeUTC().UnixNano(),
		ReceivedAt:      snapshot.ReceivedAtUTC(),
		DeviceSequence:  snapshot.DeviceSequence(),
		Latitude:        snapshot.Latitude(),
		Longitude:       snapshot.Longitude(),
		SpeedKph:        snapshot.SpeedKph(),
		HeadingDegrees:  snapshot.HeadingDegrees(),
		AccuracyMeters:  snapshot.AccuracyMeters(),
		UpdatedAt:       snapshot.UpdatedAtUTC(),
	}

	if routeScheduleID := snapshot.RouteScheduleID(); routeScheduleID != nil {
		value := routeScheduleID.String()
		document.RouteScheduleID = &value
	}

	return document
}

func (d latestLocationDocument) snapshot() (*tracking.VehicleLatestLocation, error) {
	ids, err := parseIDs(d.TenantID, d.VehicleID, d.GpsFixID)
	if err != nil {
		return nil, fmt.Errorf("latest location for vehicle %s: %w", d.VehicleID, err)
	}

	var routeScheduleID *uuid.UUID
	if d.RouteScheduleID != nil {
		parsed, err := uuid.Parse(*d.RouteScheduleID)
		if err != nil {
			return nil, fmt.Errorf("route schedule id %q: %w", *d.RouteScheduleID, err)
		}
		routeScheduleID = &parsed
	}

	return tracking.NewVehicleLatestLocation(tracking.VehicleLatestLocationParams{
		TenantID:        ids[0],
		VehicleID:       ids[1],
		GpsFixID:        ids[2],
		DeviceTimeUTC:   time.Unix(0, d.DeviceTimeNanos).UTC(),
		ReceivedAtUTC:   d.ReceivedAt.UTC(),
		DeviceSequence:  d.DeviceSequence,
		Latitude:        d.Latitude,
		Longitude:       d.Longitude,
		SpeedKph:        d.SpeedKph,
		HeadingDegrees:  d.HeadingDegrees,
		AccuracyMeters:  d.AccuracyMeters,
		RouteScheduleID: routeScheduleID,
		UpdatedAtUTC:    d.UpdatedAt.UTC(),
	})
}

func parseIDs(values ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", value, err)
		}
		ids[i] = id
	}

	return ids, nil
}
