// Package fixqueue carries GPS fix batches through a Redis queue into the ingestion service.
package fixqueue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/adjust/rmq/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/contracts"
	"github.com/travigo/geotrack/pkg/ingest"
)

const (
	QueueName      = "gps-fix-queue"
	RetryQueueName = "gps-fix-queue-retry"
)

// BatchIngester is the part of the ingestion service the consumer drives.
type BatchIngester interface {
	IngestBatch(ctx context.Context, tenant ingest.Tenant, items []ingest.BatchItem) (*ingest.BatchResult, error)
}

type BatchConsumer struct {
	ingester BatchIngester
}

func NewBatchConsumer(ingester BatchIngester) *BatchConsumer {
	return &BatchConsumer{ingester: ingester}
}

type tenantGroup struct {
	tenantID   uuid.UUID
	items      []ingest.BatchItem
	deliveries []rmq.Delivery
}

// groupByTenant merges the deliveries of each tenant into one batch, keeping first
// seen tenant order and message order within a tenant. Undecodable deliveries are
// returned separately.
func groupByTenant(batch rmq.Deliveries) ([]*tenantGroup, []rmq.Delivery) {
	var groups []*tenantGroup
	var malformed []rmq.Delivery
	byTenant := map[uuid.UUID]*tenantGroup{}

	for _, delivery := range batch {
		var message contracts.QueuedBatch
		if err := json.Unmarshal([]byte(delivery.Payload()), &message); err != nil {
			log.Error().Err(err).Msg("Failed to decode queued gps fix batch")
			malformed = append(malformed, delivery)
			continue
		}

		group, ok := byTenant[message.TenantId]
		if !ok {
			group = &tenantGroup{tenantID: message.TenantId}
			byTenant[message.TenantId] = group
			groups = append(groups, group)
		}

		for _, item := range message.Items {
			group.items = append(group.items, item.BatchItem())
		}
		group.deliveries = append(group.deliveries, delivery)
	}

	return groups, malformed
}

func (c *BatchConsumer) Consume(batch rmq.Deliveries) {
	groups, malformed := groupByTenant(batch)

	for _, delivery := range malformed {
		reject(delivery)
	}

	for _, group := range groups {
		result, err := c.ingester.IngestBatch(context.Background(), ingest.Tenant{ID: group.tenantID}, group.items)

		var rejection *ingest.Rejection
		switch {
		case errors.As(err, &rejection):
			log.Error().Str("tenant", group.tenantID.String()).Str("code", string(rejection.Code)).Msg("Rejecting queued gps fixes")
			for _, delivery := range group.deliveries {
				reject(delivery)
			}
		case err != nil:
			log.Error().Err(err).Str("tenant", group.tenantID.String()).Msg("Failed to ingest queued gps fixes, pushing for retry")
			for _, delivery := range group.deliveries {
				if err := delivery.Push(); err != nil {
					log.Error().Err(err).Msg("Failed to push delivery")
				}
			}
		default:
			log.Debug().
				Str("tenant", group.tenantID.String()).
				Int("accepted", result.AcceptedCount).
				Int("rejected", result.RejectedCount).
				Msg("Ingested queued gps fixes")

			for _, delivery := range group.deliveries {
				if err := delivery.Ack(); err != nil {
					log.Error().Err(err).Msg("Failed to ack delivery")
				}
			}
		}
	}
}

func reject(delivery rmq.Delivery) {
	if err := delivery.Reject(); err != nil {
		log.Error().Err(err).Msg("Failed to reject delivery")
	}
}
