package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

type FixResult struct {
	VehicleID       uuid.UUID
	GpsFixID        uuid.UUID
	DeviceTimeUTC   time.Time
	ReceivedAtUTC   time.Time
	IsLatestApplied bool
}

// IngestFix records one fix for vehicleID. A refused fix is returned as a *Rejection and
// nothing is written. Any other error is an infrastructure failure.
func (s *Service) IngestFix(ctx context.Context, tenant Tenant, vehicleID uuid.UUID, payload FixPayload) (*FixResult, error) {
	result, rejection, err := s.ingestFix(ctx, tenant, vehicleID, payload)
	if err != nil {
		return nil, err
	}

	if rejection != nil {
		s.notify(ctx, Report{
			TenantID:      tenant.ID,
			ReceivedAtUTC: s.now().UTC(),
			Rejected:      []ItemResult{rejectedItem(0, vehicleID, rejection)},
		})

		return nil, rejection
	}

	return result, nil
}

func (s *Service) ingestFix(ctx context.Context, tenant Tenant, vehicleID uuid.UUID, payload FixPayload) (*FixResult, *Rejection, error) {
	if !tenant.Present() {
		return nil, rejectWithDefault(CodeMissingTenant), nil
	}

	exists, err := s.store.VehicleExists(ctx, tenant.ID, vehicleID)
	if err != nil {
		return nil, nil, fmt.Errorf("checking vehicle %s: %w", vehicleID, err)
	}
	if !exists {
		return nil, rejectWithDefault(CodeVehicleNotFound), nil
	}

	if rejection := checkPayload(payload); rejection != nil {
		return nil, rejection, nil
	}

	receivedAt := s.now().UTC()

	fix, rejection := buildFix(s.newID(), tenant.ID, vehicleID, receivedAt, payload)
	if rejection != nil {
		return nil, rejection, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var applied *tracking.VehicleLatestLocation
	err = s.withRetry(ctx, func() error {
		applied = nil

		return s.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			if err := tx.InsertFixes(ctx, []*tracking.GpsFix{fix}); err != nil {
				return err
			}

			snapshot, err := s.applyLatest(ctx, tx, tenant.ID, fix)
			if err != nil {
				return err
			}

			applied = snapshot
			return nil
		})
	})
	if errors.Is(err, storage.ErrVehicleNotFound) {
		return nil, rejectWithDefault(CodeVehicleNotFound), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storing gps fix for vehicle %s: %w", vehicleID, err)
	}

	log.Debug().
		Str("tenant", tenant.ID.String()).
		Str("vehicle", vehicleID.String()).
		Str("fix", fix.ID().String()).
		Bool("latest", applied != nil).
		Msg("Ingested gps fix")

	report := Report{TenantID: tenant.ID, ReceivedAtUTC: receivedAt, Accepted: 1}
	if applied != nil {
		report.Applied = []*tracking.VehicleLatestLocation{applied}
	}
	s.notify(ctx, report)

	return &FixResult{
		VehicleID:       vehicleID,
		GpsFixID:        fix.ID(),
		DeviceTimeUTC:   fix.DeviceTimeUTC(),
		ReceivedAtUTC:   receivedAt,
		IsLatestApplied: applied != nil,
	}, nil, nil
}
