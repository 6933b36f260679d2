package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

type ItemStatus string

const (
	StatusAccepted ItemStatus = "accepted"
	StatusRejected ItemStatus = "rejected"
)

type ItemResult struct {
	Index     int
	VehicleID uuid.UUID
	Status    ItemStatus

	// Set when accepted
	GpsFixID *uuid.UUID

	// Set when rejected
	Error   RejectionCode
	Message string
}

type BatchResult struct {
	AcceptedCount int
	RejectedCount int
	ReceivedAtUTC time.Time
	Results       []ItemResult
}

type pendingItem struct {
	id   uuid.UUID
	item BatchItem
}

type classifiedItem struct {
	fix       *tracking.GpsFix
	rejection *Rejection
}

func rejectedItem(index int, vehicleID uuid.UUID, rejection *Rejection) ItemResult {
	return ItemResult{
		Index:     index,
		VehicleID: vehicleID,
		Status:    StatusRejected,
		Error:     rejection.Code,
		Message:   rejection.Message,
	}
}

// IngestBatch classifies every item independently and commits all accepted fixes together
// with at most one snapshot replacement per vehicle. Only a missing tenant or an
// infrastructure failure fails the whole call.
func (s *Service) IngestBatch(ctx context.Context, tenant Tenant, items []BatchItem) (*BatchResult, error) {
	if !tenant.Present() {
		return nil, rejectWithDefault(CodeMissingTenant)
	}

	receivedAt := s.now().UTC()
	if len(items) == 0 {
		return &BatchResult{ReceivedAtUTC: receivedAt, Results: []ItemResult{}}, nil
	}

	// Ids are drawn up front so a deterministic generator maps to item positions.
	pending := make([]pendingItem, len(items))
	for i := range items {
		pending[i] = pendingItem{id: s.newID(), item: items[i]}
	}

	for {
		result, applied, err := s.storeBatch(ctx, tenant.ID, receivedAt, pending)
		if errors.Is(err, storage.ErrVehicleNotFound) {
			// Deletion is final, so the next pass rejects the deleted vehicle's items
			log.Debug().Err(err).Str("tenant", tenant.ID.String()).Msg("Batch vehicle deleted during ingest, reclassifying")
			continue
		}
		if err != nil {
			return nil, err
		}

		report := Report{
			TenantID:      tenant.ID,
			Batch:         true,
			ReceivedAtUTC: receivedAt,
			Accepted:      result.AcceptedCount,
			Applied:       applied,
		}
		for _, item := range result.Results {
			if item.Status == StatusRejected {
				report.Rejected = append(report.Rejected, item)
			}
		}
		s.notify(ctx, report)

		return result, nil
	}
}

// storeBatch resolves, classifies and commits one pass over the batch.
func (s *Service) storeBatch(ctx context.Context, tenantID uuid.UUID, receivedAt time.Time, pending []pendingItem) (*BatchResult, []*tracking.VehicleLatestLocation, error) {
	result := &BatchResult{
		ReceivedAtUTC: receivedAt,
		Results:       make([]ItemResult, len(pending)),
	}

	existing, err := s.store.ExistingVehicleIDs(ctx, tenantID, distinctVehicleIDs(pending))
	if err != nil {
		return nil, nil, fmt.Errorf("resolving batch vehicles: %w", err)
	}

	// Map keeps input order
	classified := iter.Map(pending, func(p *pendingItem) classifiedItem {
		return classify(p.id, tenantID, receivedAt, p.item, existing)
	})

	var accepted []*tracking.GpsFix
	var vehicleOrder []uuid.UUID
	best := map[uuid.UUID]*tracking.GpsFix{}

	for i, item := range classified {
		vehicleID := pending[i].item.VehicleID

		if item.rejection != nil {
			result.Results[i] = rejectedItem(i, vehicleID, item.rejection)
			result.RejectedCount++
			continue
		}

		fixID := item.fix.ID()
		result.Results[i] = ItemResult{Index: i, VehicleID: vehicleID, Status: StatusAccepted, GpsFixID: &fixID}
		result.AcceptedCount++
		accepted = append(accepted, item.fix)

		current, seen := best[vehicleID]
		if !seen {
			vehicleOrder = append(vehicleOrder, vehicleID)
			best[vehicleID] = item.fix
		} else if tracking.IsNewer(item.fix, current) {
			best[vehicleID] = item.fix
		}
	}

	if len(accepted) == 0 {
		return result, nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var applied []*tracking.VehicleLatestLocation
	startTime := time.Now()

	err = s.withRetry(ctx, func() error {
		applied = nil

		return s.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			if err := tx.InsertFixes(ctx, accepted); err != nil {
				return err
			}

			for _, vehicleID := range vehicleOrder {
				snapshot, err := s.applyLatest(ctx, tx, tenantID, best[vehicleID])
				if err != nil {
					return err
				}
				if snapshot != nil {
					applied = append(applied, snapshot)
				}
			}

			return nil
		})
	})
	if errors.Is(err, storage.ErrVehicleNotFound) {
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storing gps fix batch: %w", err)
	}

	log.Info().
		Str("tenant", tenantID.String()).
		Int("accepted", result.AcceptedCount).
		Int("rejected", result.RejectedCount).
		Int("snapshots", len(applied)).
		Str("Time", time.Since(startTime).String()).
		Msg("Batch write")

	return result, applied, nil
}

func classify(id, tenantID uuid.UUID, receivedAt time.Time, item BatchItem, existing map[uuid.UUID]struct{}) classifiedItem {
	if item.VehicleID == uuid.Nil {
		return classifiedItem{rejection: rejectWithDefault(CodeInvalidVehicle)}
	}
	if _, ok := existing[item.VehicleID]; !ok {
		return classifiedItem{rejection: rejectWithDefault(CodeVehicleNotFound)}
	}
	if rejection := checkPayload(item.Payload); rejection != nil {
		return classifiedItem{rejection: rejection}
	}

	fix, rejection := buildFix(id, tenantID, item.VehicleID, receivedAt, item.Payload)
	if rejection != nil {
		return classifiedItem{rejection: rejection}
	}

	return classifiedItem{fix: fix}
}

func distinctVehicleIDs(pending []pendingItem) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID

	for _, p := range pending {
		vehicleID := p.item.VehicleID
		if vehicleID == uuid.Nil {
			continue
		}
		if _, ok := seen[vehicleID]; ok {
			continue
		}

		seen[vehicleID] = struct{}{}
		ids = append(ids, vehicleID)
	}

	return ids
}
