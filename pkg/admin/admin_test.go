package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/storage/memory"
	"github.com/travigo/geotrack/pkg/tracking"
)

var now = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

func TestCreateTenant(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	tenant, err := CreateTenant(ctx, store, "", " Acme Logistics ", now)
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics", tenant.Name)

	exists, err := store.TenantExists(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	fixedID := uuid.New()
	tenant, err = CreateTenant(ctx, store, fixedID.String(), "Fixed", now)
	require.NoError(t, err)
	assert.Equal(t, fixedID, tenant.ID)

	_, err = CreateTenant(ctx, store, "not-a-guid", "Broken", now)
	assert.Error(t, err)

	_, err = CreateTenant(ctx, store, "", "   ", now)
	assert.ErrorIs(t, err, tracking.ErrInvalidArgument)
}

func TestInspectVehicle(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	tenantID := uuid.New()

	registration := "GT01 FIX"
	vehicle, err := tracking.NewVehicle(tenantID, uuid.New(), tracking.NewVehicleIdentity(&registration, nil, nil), now)
	require.NoError(t, err)
	require.NoError(t, store.InsertVehicle(ctx, vehicle))

	inspection, err := InspectVehicle(ctx, store, tenantID.String(), vehicle.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "Active", inspection.Status)
	assert.Nil(t, inspection.LatestLocation)

	service := ingest.NewService(store, ingest.WithClock(func() time.Time { return now }))
	_, err = service.IngestFix(ctx, ingest.Tenant{ID: tenantID}, vehicle.ID(), ingest.FixPayload{
		Latitude:      52.2,
		Longitude:     0.12,
		DeviceTimeUTC: now.Add(-time.Minute),
		CorrelationID: "inspect",
	})
	require.NoError(t, err)

	inspection, err = InspectVehicle(ctx, store, tenantID.String(), vehicle.ID().String())
	require.NoError(t, err)
	require.NotNil(t, inspection.LatestLocation)
	assert.Equal(t, 52.2, inspection.LatestLocation.Latitude)

	_, err = InspectVehicle(ctx, store, tenantID.String(), uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
