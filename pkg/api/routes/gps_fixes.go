package routes

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/contracts"
	"github.com/travigo/geotrack/pkg/ingest"
)

type FixIngester interface {
	IngestFix(ctx context.Context, tenant ingest.Tenant, vehicleID uuid.UUID, payload ingest.FixPayload) (*ingest.FixResult, error)
	IngestBatch(ctx context.Context, tenant ingest.Tenant, items []ingest.BatchItem) (*ingest.BatchResult, error)
}

type BatchPublisher interface {
	Publish(ctx context.Context, batch contracts.QueuedBatch) error
}

const (
	codeQueueUnavailable    = "queue_unavailable"
	messageQueueUnavailable = "Asynchronous ingestion is not configured."
)

type gpsFixes struct {
	ingester  FixIngester
	publisher BatchPublisher
}

// GpsFixesRouter mounts the batch endpoints. publisher may be nil, in which case the
// queue endpoint answers 503.
func GpsFixesRouter(router fiber.Router, ingester FixIngester, publisher BatchPublisher) {
	handlers := &gpsFixes{ingester: ingester, publisher: publisher}

	router.Post("/batch", handlers.ingestBatch)
	router.Post("/queue", handlers.queueBatch)
}

// VehicleGpsFixesRouter mounts single fix ingestion under /vehicles/:vehicleId.
func VehicleGpsFixesRouter(router fiber.Router, ingester FixIngester) {
	handlers := &gpsFixes{ingester: ingester}

	router.Post("/:vehicleId/gps-fixes", handlers.ingestSingle)
}

func (h *gpsFixes) ingestSingle(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	var request contracts.GpsFixRequest
	if err := decodeBody(c, &request); err != nil {
		return sendInvalidPayload(c, err)
	}

	result, err := h.ingester.IngestFix(c.UserContext(), t, vehicleID, request.Payload())
	if err != nil {
		return sendFailure(c, err)
	}

	c.Location(fmt.Sprintf("/vehicles/%s/gps-fixes/%s", result.VehicleID, result.GpsFixID))
	return c.Status(fiber.StatusCreated).JSON(contracts.NewGpsFixResponse(result))
}

func (h *gpsFixes) ingestBatch(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	var request contracts.GpsFixBatchRequest
	if err := decodeBody(c, &request); err != nil {
		return sendInvalidPayload(c, err)
	}

	result, err := h.ingester.IngestBatch(c.UserContext(), t, request.BatchItems())
	if err != nil {
		return sendFailure(c, err)
	}

	return c.JSON(contracts.NewBatchResponse(result))
}

func (h *gpsFixes) queueBatch(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	if h.publisher == nil {
		return SendError(c, fiber.StatusServiceUnavailable, codeQueueUnavailable, messageQueueUnavailable)
	}

	var request contracts.GpsFixBatchRequest
	if err := decodeBody(c, &request); err != nil {
		return sendInvalidPayload(c, err)
	}

	err := h.publisher.Publish(c.UserContext(), contracts.QueuedBatch{TenantId: t.ID, Items: request.Items})
	if err != nil {
		return sendFailure(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(contracts.QueuedResponse{Queued: len(request.Items)})
}
