package tracking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderKey is the part of a fix or snapshot that decides precedence for one vehicle.
// An absent device sequence is represented as 0.
type OrderKey struct {
	DeviceTime time.Time
	Sequence   int64
}

// CompareOrder orders two keys by device time, then by device sequence.
// It returns a positive number when a supersedes b, negative when b supersedes a and 0 when neither does.
func CompareOrder(a, b OrderKey) int {
	switch {
	case a.DeviceTime.After(b.DeviceTime):
		return 1
	case a.DeviceTime.Before(b.DeviceTime):
		return -1
	case a.Sequence > b.Sequence:
		return 1
	case a.Sequence < b.Sequence:
		return -1
	default:
		return 0
	}
}

// ShouldReplace reports whether candidate supersedes the stored snapshot.
// A vehicle without a snapshot always takes the candidate.
func ShouldReplace(current *VehicleLatestLocation, candidate *GpsFix) bool {
	if candidate == nil {
		panic("tracking: ShouldReplace called with nil candidate")
	}
	if current == nil {
		return true
	}

	return CompareOrder(candidate.OrderKey(), current.OrderKey()) > 0
}

// IsNewer reports whether candidate strictly supersedes other.
func IsNewer(candidate, other *GpsFix) bool {
	if candidate == nil || other == nil {
		panic("tracking: IsNewer called with nil fix")
	}

	return CompareOrder(candidate.OrderKey(), other.OrderKey()) > 0
}

// CreateSnapshot builds the replacement snapshot for fix. The route schedule is not derived
// from the fix, it is carried over from the snapshot being replaced.
func CreateSnapshot(tenantID, vehicleID uuid.UUID, fix *GpsFix, routeScheduleID *uuid.UUID, updatedAtUTC time.Time) (*VehicleLatestLocation, error) {
	if fix == nil {
		return nil, fmt.Errorf("%w: fix is required", ErrInvalidArgument)
	}

	params := VehicleLatestLocationParams{
		TenantID:        tenantID,
		VehicleID:       vehicleID,
		GpsFixID:        fix.ID(),
		DeviceTimeUTC:   fix.DeviceTimeUTC(),
		ReceivedAtUTC:   fix.ReceivedAtUTC(),
		DeviceSequence:  fix.OrderKey().Sequence,
		Latitude:        fix.Latitude().Float64(),
		Longitude:       fix.Longitude().Float64(),
		RouteScheduleID: routeScheduleID,
		UpdatedAtUTC:    updatedAtUTC,
	}
	if speed := fix.Speed(); speed != nil {
		value := speed.Float64()
		params.SpeedKph = &value
	}
	if heading := fix.Heading(); heading != nil {
		value := heading.Float64()
		params.HeadingDegrees = &value
	}
	if accuracy := fix.Accuracy(); accuracy != nil {
		value := accuracy.Float64()
		params.AccuracyMeters = &value
	}

	return NewVehicleLatestLocation(params)
}
