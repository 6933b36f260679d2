package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

type replacement struct {
	previous *tracking.VehicleLatestLocation
	next     *tracking.VehicleLatestLocation
}

type transaction struct {
	store *Store

	fixes        []*tracking.GpsFix
	replacements []replacement
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &transaction{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.RLock()
	hook := s.beforeCommit
	s.mu.RUnlock()
	if hook != nil {
		hook()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.commit(tx)
}

func (s *Store) commit(tx *transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fix := range tx.fixes {
		if _, ok := s.fixes[fix.ID()]; ok {
			return fmt.Errorf("gps fix %s already exists", fix.ID())
		}
		if _, ok := s.vehicles[vehicleKey{fix.TenantID(), fix.VehicleID()}]; !ok {
			return fmt.Errorf("gps fix %s: %w", fix.ID(), storage.ErrVehicleNotFound)
		}
	}

	pending := map[vehicleKey]*tracking.VehicleLatestLocation{}
	for _, r := range tx.replacements {
		key := vehicleKey{r.next.TenantID(), r.next.VehicleID()}

		current, staged := pending[key]
		if !staged {
			current = s.latest[key]
		}
		if !sameSnapshot(current, r.previous) {
			return storage.ErrLatestLocationConflict
		}

		pending[key] = r.next
	}

	for _, fix := range tx.fixes {
		s.fixes[fix.ID()] = fix
	}
	for _, r := range tx.replacements {
		key := vehicleKey{r.next.TenantID(), r.next.VehicleID()}
		s.latest[key] = pending[key]
		s.snapshotWrites[key]++
	}

	return nil
}

func sameSnapshot(a, b *tracking.VehicleLatestLocation) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.GpsFixID() == b.GpsFixID()
}

func (t *transaction) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error) {
	for i := len(t.replacements) - 1; i >= 0; i-- {
		next := t.replacements[i].next
		if next.TenantID() == tenantID && next.VehicleID() == vehicleID {
			return next, nil
		}
	}

	return t.store.LatestLocation(ctx, tenantID, vehicleID)
}

func (t *transaction) InsertFixes(ctx context.Context, fixes []*tracking.GpsFix) error {
	t.fixes = append(t.fixes, fixes...)
	return nil
}

func (t *transaction) ReplaceLatestLocation(ctx context.Context, previous, next *tracking.VehicleLatestLocation) error {
	if next == nil {
		return fmt.Errorf("%w: replacement snapshot is required", tracking.ErrInvalidArgument)
	}

	t.replacements = append(t.replacements, replacement{previous: previous, next: next})
	return nil
}
