package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewerFollowsDeviceTimeRegardlessOfSequence(t *testing.T) {
	earlier := newTestFix(t, baseTime, withSequence(1000))
	later := newTestFix(t, baseTime.Add(time.Second), withSequence(1))

	assert.True(t, IsNewer(later, earlier))
	assert.False(t, IsNewer(earlier, later))
}

func TestIsNewerTieBreaks(t *testing.T) {
	tests := []struct {
		name      string
		candidate *GpsFix
		other     *GpsFix
		expected  bool
	}{
		{
			name:      "higher sequence wins",
			candidate: newTestFix(t, baseTime, withSequence(7)),
			other:     newTestFix(t, baseTime, withSequence(5)),
			expected:  true,
		},
		{
			name:      "lower sequence loses",
			candidate: newTestFix(t, baseTime, withSequence(5)),
			other:     newTestFix(t, baseTime, withSequence(7)),
			expected:  false,
		},
		{
			name:      "both absent is a tie",
			candidate: newTestFix(t, baseTime),
			other:     newTestFix(t, baseTime),
			expected:  false,
		},
		{
			name:      "absent sequence counts as zero",
			candidate: newTestFix(t, baseTime, withSequence(0)),
			other:     newTestFix(t, baseTime),
			expected:  false,
		},
		{
			name:      "receipt time does not break ties",
			candidate: newTestFix(t, baseTime, withReceivedAt(baseTime.Add(2*time.Hour))),
			other:     newTestFix(t, baseTime, withReceivedAt(baseTime.Add(time.Hour))),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNewer(tt.candidate, tt.other))
		})
	}
}

func TestCompareOrderIsAntisymmetric(t *testing.T) {
	keys := []OrderKey{
		{DeviceTime: baseTime},
		{DeviceTime: baseTime, Sequence: 3},
		{DeviceTime: baseTime.Add(time.Millisecond)},
		{DeviceTime: baseTime.Add(-time.Hour), Sequence: 99},
	}

	for _, a := range keys {
		for _, b := range keys {
			assert.Equal(t, CompareOrder(a, b), -CompareOrder(b, a))
		}
	}
}

func TestShouldReplace(t *testing.T) {
	fix := newTestFix(t, baseTime, withSequence(2))
	assert.True(t, ShouldReplace(nil, fix))

	current, err := CreateSnapshot(testTenantID, testVehicleID, fix, nil, baseTime.Add(time.Hour))
	require.NoError(t, err)

	assert.False(t, ShouldReplace(current, fix), "equal order keys keep the stored snapshot")
	assert.False(t, ShouldReplace(current, newTestFix(t, baseTime.Add(-time.Minute))))
	assert.True(t, ShouldReplace(current, newTestFix(t, baseTime, withSequence(3))))
	assert.True(t, ShouldReplace(current, newTestFix(t, baseTime.Add(time.Minute))))
}

func TestPolicyPanicsOnMissingCandidate(t *testing.T) {
	assert.Panics(t, func() { ShouldReplace(nil, nil) })
	assert.Panics(t, func() { IsNewer(nil, newTestFix(t, baseTime)) })
}

func TestCreateSnapshot(t *testing.T) {
	routeScheduleID := uuid.New()
	fix := newTestFix(t, baseTime, withSequence(4), withSpeed(37.5))
	updatedAt := baseTime.Add(2 * time.Hour)

	snapshot, err := CreateSnapshot(testTenantID, testVehicleID, fix, &routeScheduleID, updatedAt)
	require.NoError(t, err)

	assert.Equal(t, fix.ID(), snapshot.GpsFixID())
	assert.Equal(t, baseTime, snapshot.DeviceTimeUTC())
	assert.Equal(t, fix.ReceivedAtUTC(), snapshot.ReceivedAtUTC())
	assert.Equal(t, int64(4), snapshot.DeviceSequence())
	assert.Equal(t, 51.0, snapshot.Latitude())
	assert.Equal(t, -0.1, snapshot.Longitude())
	require.NotNil(t, snapshot.SpeedKph())
	assert.Equal(t, 37.5, *snapshot.SpeedKph())
	assert.Nil(t, snapshot.HeadingDegrees())
	require.NotNil(t, snapshot.RouteScheduleID())
	assert.Equal(t, routeScheduleID, *snapshot.RouteScheduleID())
	assert.Equal(t, updatedAt, snapshot.UpdatedAtUTC())
}

func TestCreateSnapshotRejectsBadInput(t *testing.T) {
	_, err := CreateSnapshot(testTenantID, testVehicleID, nil, nil, baseTime)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	fix := newTestFix(t, baseTime)
	_, err = CreateSnapshot(testTenantID, testVehicleID, fix, nil, baseTime.In(time.FixedZone("CET", 3600)))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
