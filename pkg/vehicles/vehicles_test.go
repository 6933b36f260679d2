package vehicles

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/storage/memory"
	"github.com/travigo/geotrack/pkg/tracking"
)

var (
	tenantID = uuid.MustParse("c0ffee00-1111-4a2b-8c3d-000000000001")
	baseTime = time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
)

func strPtr(value string) *string { return &value }

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newService(t *testing.T) (*Service, *memory.Store, *clock) {
	t.Helper()

	store := memory.New()
	c := &clock{now: baseTime}

	return NewService(store, WithClock(c.Now)), store, c
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()

	var vehicleErr *Error
	require.True(t, errors.As(err, &vehicleErr), "expected vehicles error, got %v", err)
	assert.Equal(t, code, vehicleErr.Code)
}

func TestCreateAndGet(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr(" AB12 CDE "), Name: strPtr("  ")})
	require.NoError(t, err)
	assert.Equal(t, tracking.VehicleStatusActive, vehicle.Status())
	assert.Equal(t, "AB12 CDE", *vehicle.Identity().RegistrationNumber)
	assert.Nil(t, vehicle.Identity().Name)
	assert.Equal(t, baseTime, vehicle.CreatedAtUTC())

	loaded, err := service.Get(ctx, tenantID, vehicle.ID())
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID(), loaded.ID())

	_, err = service.Get(ctx, uuid.New(), vehicle.ID())
	requireCode(t, err, CodeVehicleNotFound)
}

func TestCreateDuplicateRegistration(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr("AB12")})
	require.NoError(t, err)

	_, err = service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr("AB12")})
	requireCode(t, err, CodeDuplicateRegistration)

	var vehicleErr *Error
	require.True(t, errors.As(err, &vehicleErr))
	assert.Equal(t, MessageDuplicateRegistration, vehicleErr.Message)
}

func TestCreateFieldLengths(t *testing.T) {
	service, _, _ := newService(t)

	_, err := service.Create(context.Background(), tenantID, Identity{RegistrationNumber: strPtr(strings.Repeat("A", 33))})
	requireCode(t, err, CodeInvalidPayload)

	_, err = service.Create(context.Background(), tenantID, Identity{Name: strPtr(strings.Repeat("é", 128))})
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	service, _, c := newService(t)
	ctx := context.Background()

	var created []uuid.UUID
	for i := 0; i < 5; i++ {
		c.now = baseTime.Add(time.Duration(i) * time.Minute)
		vehicle, err := service.Create(ctx, tenantID, Identity{})
		require.NoError(t, err)
		created = append(created, vehicle.ID())
	}

	page, err := service.List(ctx, tenantID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, created[4], page.Items[0].ID())
	assert.Equal(t, created[3], page.Items[1].ID())

	page, err = service.List(ctx, tenantID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, created[0], page.Items[0].ID())

	tests := []struct {
		name     string
		page     int
		pageSize int
		message  string
	}{
		{"page zero", 0, 10, MessagePage},
		{"page size zero", 1, 0, MessagePageSize},
		{"page size too large", 1, 201, MessagePageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.List(ctx, tenantID, tt.page, tt.pageSize)
			requireCode(t, err, CodeInvalidPaging)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestPatch(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr("AB12"), Name: strPtr("Van")})
	require.NoError(t, err)

	inactive := tracking.VehicleStatusInactive
	patched, err := service.Patch(ctx, tenantID, vehicle.ID(), Patch{Name: strPtr(""), ExternalID: strPtr("ext-1"), Status: &inactive})
	require.NoError(t, err)
	assert.Nil(t, patched.Identity().Name)
	assert.Equal(t, "AB12", *patched.Identity().RegistrationNumber)
	assert.Equal(t, "ext-1", *patched.Identity().ExternalID)
	assert.Equal(t, tracking.VehicleStatusInactive, patched.Status())

	decommissioned := tracking.VehicleStatusDecommissioned
	_, err = service.Patch(ctx, tenantID, vehicle.ID(), Patch{Status: &decommissioned})
	require.NoError(t, err)

	active := tracking.VehicleStatusActive
	_, err = service.Patch(ctx, tenantID, vehicle.ID(), Patch{Status: &active})
	requireCode(t, err, CodeInvalidStatusTransition)
	assert.ErrorIs(t, err, tracking.ErrInvalidOperation)

	loaded, err := service.Get(ctx, tenantID, vehicle.ID())
	require.NoError(t, err)
	assert.Equal(t, tracking.VehicleStatusDecommissioned, loaded.Status())

	unknown := tracking.VehicleStatus(9)
	_, err = service.Patch(ctx, tenantID, vehicle.ID(), Patch{Status: &unknown})
	requireCode(t, err, CodeInvalidPayload)

	_, err = service.Patch(ctx, tenantID, uuid.New(), Patch{Name: strPtr("x")})
	requireCode(t, err, CodeVehicleNotFound)
}

func TestPatchDuplicateRegistration(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr("AB12")})
	require.NoError(t, err)
	other, err := service.Create(ctx, tenantID, Identity{RegistrationNumber: strPtr("CD34")})
	require.NoError(t, err)

	_, err = service.Patch(ctx, tenantID, other.ID(), Patch{RegistrationNumber: strPtr("AB12")})
	requireCode(t, err, CodeDuplicateRegistration)
}

type recordingLatest struct {
	*memory.Store
	invalidated []uuid.UUID
}

func (r *recordingLatest) Invalidate(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	r.invalidated = append(r.invalidated, vehicleID)
	return nil
}

func TestDeleteCascades(t *testing.T) {
	store := memory.New()
	latest := &recordingLatest{Store: store}
	service := NewService(store, WithClock(func() time.Time { return baseTime }), WithLatestLocations(latest))
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{})
	require.NoError(t, err)

	ingestService := ingest.NewService(store, ingest.WithClock(func() time.Time { return baseTime }))
	_, err = ingestService.IngestFix(ctx, ingest.Tenant{ID: tenantID}, vehicle.ID(), ingest.FixPayload{
		Latitude:      51,
		Longitude:     0,
		DeviceTimeUTC: baseTime,
		CorrelationID: "c",
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, tenantID, vehicle.ID()))
	assert.Equal(t, 0, store.FixCount())
	assert.Equal(t, []uuid.UUID{vehicle.ID()}, latest.invalidated)

	snapshot, err := store.LatestLocation(ctx, tenantID, vehicle.ID())
	require.NoError(t, err)
	assert.Nil(t, snapshot)

	requireCode(t, service.Delete(ctx, tenantID, vehicle.ID()), CodeVehicleNotFound)
}

func ingestAt(t *testing.T, store *memory.Store, vehicleID uuid.UUID, receivedAt, deviceTime time.Time, lat, lon float64, speed *float64) {
	t.Helper()

	service := ingest.NewService(store, ingest.WithClock(func() time.Time { return receivedAt }))
	_, err := service.IngestFix(context.Background(), ingest.Tenant{ID: tenantID}, vehicleID, ingest.FixPayload{
		Latitude:      lat,
		Longitude:     lon,
		DeviceTimeUTC: deviceTime,
		SpeedKph:      speed,
		CorrelationID: "c",
	})
	require.NoError(t, err)
}

func TestLatestLocation(t *testing.T) {
	service, store, c := newService(t)
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{})
	require.NoError(t, err)

	view, err := service.LatestLocation(ctx, tenantID, vehicle.ID(), DefaultStaleAfterSeconds)
	require.NoError(t, err)
	assert.Nil(t, view)

	ingestAt(t, store, vehicle.ID(), baseTime, baseTime.Add(-time.Second), 51.5, -0.1, nil)

	c.now = baseTime.Add(10 * time.Second)
	view, err = service.LatestLocation(ctx, tenantID, vehicle.ID(), 10)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, 10, view.SecondsSinceLastUpdate)
	assert.False(t, view.IsStale)
	assert.Equal(t, 51.5, view.Latitude)

	c.now = baseTime.Add(11 * time.Second)
	view, err = service.LatestLocation(ctx, tenantID, vehicle.ID(), 10)
	require.NoError(t, err)
	assert.True(t, view.IsStale)

	for _, staleAfter := range []int{0, MaxStaleAfterSeconds + 1} {
		_, err = service.LatestLocation(ctx, tenantID, vehicle.ID(), staleAfter)
		requireCode(t, err, CodeInvalidQuery)
	}

	_, err = service.LatestLocation(ctx, tenantID, uuid.New(), DefaultStaleAfterSeconds)
	requireCode(t, err, CodeVehicleNotFound)
}

func TestSummary(t *testing.T) {
	service, store, c := newService(t)
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{Name: strPtr("Van")})
	require.NoError(t, err)

	speed := func(v float64) *float64 { return &v }

	// Outside the window
	ingestAt(t, store, vehicle.ID(), baseTime.Add(-2*time.Hour), baseTime.Add(-2*time.Hour), 10, 10, speed(100))

	ingestAt(t, store, vehicle.ID(), baseTime.Add(-30*time.Minute), baseTime.Add(-30*time.Minute), 0, 0, speed(10))
	ingestAt(t, store, vehicle.ID(), baseTime.Add(-20*time.Minute), baseTime.Add(-20*time.Minute), 0, 1, nil)
	ingestAt(t, store, vehicle.ID(), baseTime, baseTime.Add(-10*time.Minute), 1, 1, speed(20))

	c.now = baseTime
	summary, err := service.Summary(ctx, tenantID, vehicle.ID(), DefaultWindowMinutes, DefaultStaleAfterSeconds)
	require.NoError(t, err)

	assert.Equal(t, vehicle.ID(), summary.Vehicle.ID())
	require.NotNil(t, summary.LatestLocation)
	assert.Equal(t, 1.0, summary.LatestLocation.Latitude)
	assert.False(t, summary.LatestLocation.IsStale)

	assert.Equal(t, baseTime.Add(-time.Hour), summary.Progress.WindowStartUTC)
	assert.Equal(t, baseTime, summary.Progress.WindowEndUTC)
	assert.Equal(t, 3, summary.Progress.PointsCount)
	require.NotNil(t, summary.Progress.AvgSpeedKph)
	assert.InDelta(t, 15.0, *summary.Progress.AvgSpeedKph, 1e-9)

	oneDegree := HaversineMeters(0, 0, 0, 1)
	assert.InDelta(t, 2*oneDegree, summary.Progress.DistanceMeters, 1)

	_, err = service.Summary(ctx, tenantID, vehicle.ID(), 0, DefaultStaleAfterSeconds)
	requireCode(t, err, CodeInvalidQuery)
	_, err = service.Summary(ctx, tenantID, vehicle.ID(), MaxWindowMinutes+1, DefaultStaleAfterSeconds)
	requireCode(t, err, CodeInvalidQuery)
}

func TestSummaryWithoutFixes(t *testing.T) {
	service, _, _ := newService(t)
	ctx := context.Background()

	vehicle, err := service.Create(ctx, tenantID, Identity{})
	require.NoError(t, err)

	summary, err := service.Summary(ctx, tenantID, vehicle.ID(), DefaultWindowMinutes, DefaultStaleAfterSeconds)
	require.NoError(t, err)
	assert.Nil(t, summary.LatestLocation)
	assert.Equal(t, 0, summary.Progress.PointsCount)
	assert.Zero(t, summary.Progress.DistanceMeters)
	assert.Nil(t, summary.Progress.AvgSpeedKph)
}

func TestHaversineMeters(t *testing.T) {
	assert.Zero(t, HaversineMeters(51.5, -0.1, 51.5, -0.1))
	// London to Paris is roughly 344 km
	assert.InDelta(t, 343_500, HaversineMeters(51.5074, -0.1278, 48.8566, 2.3522), 1_500)
}
