package fixqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/geotrack/pkg/contracts"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/storage/memory"
	"github.com/travigo/geotrack/pkg/tracking"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func queuedItem(vehicleID uuid.UUID, deviceTime time.Time) contracts.GpsFixBatchItem {
	return contracts.GpsFixBatchItem{
		VehicleId: vehicleID.String(),
		GpsFixRequest: contracts.GpsFixRequest{
			Latitude:      53.48,
			Longitude:     -2.24,
			DeviceTimeUtc: contracts.UTC(deviceTime),
			CorrelationId: "queued",
		},
	}
}

func delivery(t *testing.T, batch contracts.QueuedBatch) *rmq.TestDelivery {
	t.Helper()

	payload, err := json.Marshal(batch)
	require.NoError(t, err)

	return rmq.NewTestDeliveryString(string(payload))
}

func addVehicle(t *testing.T, store *memory.Store, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	vehicle, err := tracking.NewVehicle(tenantID, uuid.New(), tracking.VehicleIdentity{}, baseTime)
	require.NoError(t, err)
	require.NoError(t, store.InsertVehicle(context.Background(), vehicle))

	return vehicle.ID()
}

type failingIngester struct {
	calls int
}

func (f *failingIngester) IngestBatch(context.Context, ingest.Tenant, []ingest.BatchItem) (*ingest.BatchResult, error) {
	f.calls++
	return nil, errors.New("mongo unavailable")
}

func TestGroupByTenant(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	vehicle := uuid.New()

	batch := rmq.Deliveries{
		delivery(t, contracts.QueuedBatch{TenantId: tenantA, Items: []contracts.GpsFixBatchItem{queuedItem(vehicle, baseTime)}}),
		rmq.NewTestDeliveryString("{not json"),
		delivery(t, contracts.QueuedBatch{TenantId: tenantB, Items: []contracts.GpsFixBatchItem{queuedItem(vehicle, baseTime)}}),
		delivery(t, contracts.QueuedBatch{TenantId: tenantA, Items: []contracts.GpsFixBatchItem{
			queuedItem(vehicle, baseTime.Add(time.Second)),
			queuedItem(vehicle, baseTime.Add(2*time.Second)),
		}}),
	}

	groups, malformed := groupByTenant(batch)

	require.Len(t, groups, 2)
	assert.Len(t, malformed, 1)

	assert.Equal(t, tenantA, groups[0].tenantID)
	assert.Len(t, groups[0].items, 3)
	assert.Len(t, groups[0].deliveries, 2)
	assert.Equal(t, baseTime.Add(2*time.Second), groups[0].items[2].Payload.DeviceTimeUTC)

	assert.Equal(t, tenantB, groups[1].tenantID)
	assert.Len(t, groups[1].items, 1)
}

func TestConsumeAcksIngestedBatches(t *testing.T) {
	store := memory.New()
	tenantID := uuid.New()
	vehicleID := addVehicle(t, store, tenantID)

	first := delivery(t, contracts.QueuedBatch{TenantId: tenantID, Items: []contracts.GpsFixBatchItem{queuedItem(vehicleID, baseTime)}})
	second := delivery(t, contracts.QueuedBatch{TenantId: tenantID, Items: []contracts.GpsFixBatchItem{
		queuedItem(vehicleID, baseTime.Add(time.Minute)),
		queuedItem(uuid.New(), baseTime),
	}})

	NewBatchConsumer(ingest.NewService(store)).Consume(rmq.Deliveries{first, second})

	assert.Equal(t, rmq.Acked, first.State)
	assert.Equal(t, rmq.Acked, second.State)
	assert.Equal(t, 2, store.FixCount())

	latest, err := store.LatestLocation(context.Background(), tenantID, vehicleID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, baseTime.Add(time.Minute), latest.DeviceTimeUTC())
}

func TestConsumeRejectsPoisonMessages(t *testing.T) {
	store := memory.New()

	malformed := rmq.NewTestDeliveryString("[]")
	missingTenant := delivery(t, contracts.QueuedBatch{Items: []contracts.GpsFixBatchItem{queuedItem(uuid.New(), baseTime)}})

	NewBatchConsumer(ingest.NewService(store)).Consume(rmq.Deliveries{malformed, missingTenant})

	assert.Equal(t, rmq.Rejected, malformed.State)
	assert.Equal(t, rmq.Rejected, missingTenant.State)
	assert.Equal(t, 0, store.FixCount())
}

func TestConsumePushesOnInfrastructureFailure(t *testing.T) {
	ingester := &failingIngester{}

	first := delivery(t, contracts.QueuedBatch{TenantId: uuid.New(), Items: []contracts.GpsFixBatchItem{queuedItem(uuid.New(), baseTime)}})
	second := delivery(t, contracts.QueuedBatch{TenantId: uuid.New(), Items: []contracts.GpsFixBatchItem{queuedItem(uuid.New(), baseTime)}})

	NewBatchConsumer(ingester).Consume(rmq.Deliveries{first, second})

	assert.Equal(t, 2, ingester.calls)
	assert.Equal(t, rmq.Pushed, first.State)
	assert.Equal(t, rmq.Pushed, second.State)
}

func TestPublisher(t *testing.T) {
	connection := rmq.NewTestConnection()

	publisher, err := NewPublisher(connection)
	require.NoError(t, err)

	tenantID := uuid.New()
	require.NoError(t, publisher.Publish(context.Background(), contracts.QueuedBatch{
		TenantId: tenantID,
		Items:    []contracts.GpsFixBatchItem{queuedItem(uuid.New(), baseTime)},
	}))

	deliveries := connection.GetDeliveries(QueueName)
	require.Len(t, deliveries, 1)

	var published contracts.QueuedBatch
	require.NoError(t, json.Unmarshal([]byte(deliveries[0]), &published))
	assert.Equal(t, tenantID, published.TenantId)
	assert.Len(t, published.Items, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, publisher.Publish(ctx, contracts.QueuedBatch{TenantId: tenantID}), context.Canceled)
}
