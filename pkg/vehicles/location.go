package vehicles

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/tracking"
)

const (
	DefaultStaleAfterSeconds = 300
	MaxStaleAfterSeconds     = 24 * 60 * 60

	DefaultWindowMinutes = 60
	MaxWindowMinutes     = 24 * 60

	earthRadiusMeters = 6371000
)

type LatestLocationView struct {
	VehicleID       uuid.UUID
	GpsFixID        uuid.UUID
	Latitude        float64
	Longitude       float64
	DeviceTimeUTC   time.Time
	ReceivedAtUTC   time.Time
	DeviceSequence  int64
	SpeedKph        *float64
	HeadingDegrees  *float64
	AccuracyMeters  *float64
	RouteScheduleID *uuid.UUID

	SecondsSinceLastUpdate int
	IsStale                bool
}

type ProgressView struct {
	WindowStartUTC time.Time
	WindowEndUTC   time.Time
	PointsCount    int
	DistanceMeters float64
	AvgSpeedKph    *float64
}

type SummaryView struct {
	Vehicle        *tracking.Vehicle
	LatestLocation *LatestLocationView
	Progress       ProgressView
}

// LatestLocation returns the vehicle's snapshot with its staleness, or nil when the vehicle
// has not reported yet.
func (s *Service) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID, staleAfterSeconds int) (*LatestLocationView, error) {
	if err := checkStaleAfter(staleAfterSeconds); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, tenantID, vehicleID); err != nil {
		return nil, err
	}

	return s.latestView(ctx, tenantID, vehicleID, staleAfterSeconds, s.now().UTC())
}

// Summary combines the vehicle, its latest location and the progress over the last
// windowMinutes of received fixes.
func (s *Service) Summary(ctx context.Context, tenantID, vehicleID uuid.UUID, windowMinutes, staleAfterSeconds int) (*SummaryView, error) {
	if windowMinutes < 1 || windowMinutes > MaxWindowMinutes {
		return nil, newError(CodeInvalidQuery, MessageWindowMinutes)
	}
	if err := checkStaleAfter(staleAfterSeconds); err != nil {
		return nil, err
	}

	vehicle, err := s.Get(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	latest, err := s.latestView(ctx, tenantID, vehicleID, staleAfterSeconds, now)
	if err != nil {
		return nil, err
	}

	windowStart := now.Add(-time.Duration(windowMinutes) * time.Minute)

	// The window end is inclusive
	fixes, err := s.store.FixesReceivedBetween(ctx, tenantID, vehicleID, windowStart, now.Add(time.Nanosecond))
	if err != nil {
		return nil, fmt.Errorf("loading fixes for vehicle %s: %w", vehicleID, err)
	}

	return &SummaryView{
		Vehicle:        vehicle,
		LatestLocation: latest,
		Progress:       progress(fixes, windowStart, now),
	}, nil
}

func (s *Service) latestView(ctx context.Context, tenantID, vehicleID uuid.UUID, staleAfterSeconds int, now time.Time) (*LatestLocationView, error) {
	latest, err := s.latest.LatestLocation(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("loading latest location for vehicle %s: %w", vehicleID, err)
	}
	if latest == nil {
		return nil, nil
	}

	secondsSince := int(math.Max(0, now.Sub(latest.ReceivedAtUTC()).Seconds()))

	return &LatestLocationView{
		VehicleID:              latest.VehicleID(),
		GpsFixID:               latest.GpsFixID(),
		Latitude:               latest.Latitude(),
		Longitude:              latest.Longitude(),
		DeviceTimeUTC:          latest.DeviceTimeUTC(),
		ReceivedAtUTC:          latest.ReceivedAtUTC(),
		DeviceSequence:         latest.DeviceSequence(),
		SpeedKph:               latest.SpeedKph(),
		HeadingDegrees:         latest.HeadingDegrees(),
		AccuracyMeters:         latest.AccuracyMeters(),
		RouteScheduleID:        latest.RouteScheduleID(),
		SecondsSinceLastUpdate: secondsSince,
		IsStale:                secondsSince > staleAfterSeconds,
	}, nil
}

// progress expects fixes in device time order.
func progress(fixes []*tracking.GpsFix, windowStart, windowEnd time.Time) ProgressView {
	view := ProgressView{
		WindowStartUTC: windowStart,
		WindowEndUTC:   windowEnd,
		PointsCount:    len(fixes),
	}

	var speedSum float64
	var speedCount int

	for i, fix := range fixes {
		if speed := fix.Speed(); speed != nil {
			speedSum += speed.Float64()
			speedCount++
		}

		if i > 0 {
			previous := fixes[i-1]
			view.DistanceMeters += HaversineMeters(
				previous.Latitude().Float64(), previous.Longitude().Float64(),
				fix.Latitude().Float64(), fix.Longitude().Float64(),
			)
		}
	}

	if speedCount > 0 {
		average := speedSum / float64(speedCount)
		view.AvgSpeedKph = &average
	}

	return view
}

// HaversineMeters is the great circle distance between two points in degrees.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func checkStaleAfter(staleAfterSeconds int) *Error {
	if staleAfterSeconds < 1 || staleAfterSeconds > MaxStaleAfterSeconds {
		return newError(CodeInvalidQuery, MessageStaleAfterSeconds)
	}

	return nil
}
