// Package memory is an in-process storage.Store. Transactions are staged and validated
// against the committed state when they finish, so concurrent writers to the same
// vehicle snapshot see storage.ErrLatestLocationConflict rather than a lost update.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

type vehicleKey struct {
	tenantID  uuid.UUID
	vehicleID uuid.UUID
}

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	tenants  map[uuid.UUID]*tracking.Tenant
	vehicles map[vehicleKey]*tracking.Vehicle
	fixes    map[uuid.UUID]*tracking.GpsFix
	latest   map[vehicleKey]*tracking.VehicleLatestLocation

	snapshotWrites map[vehicleKey]int

	beforeCommit func()
}

func New() *Store {
	return &Store{
		tenants:        map[uuid.UUID]*tracking.Tenant{},
		vehicles:       map[vehicleKey]*tracking.Vehicle{},
		fixes:          map[uuid.UUID]*tracking.GpsFix{},
		latest:         map[vehicleKey]*tracking.VehicleLatestLocation{},
		snapshotWrites: map[vehicleKey]int{},
	}
}

// OnBeforeCommit registers a hook that runs after a transaction body succeeds and
// before its writes are validated.
func (s *Store) OnBeforeCommit(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.beforeCommit = hook
}

// SnapshotWrites returns how many times the latest location of a vehicle has been written.
func (s *Store) SnapshotWrites(tenantID, vehicleID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotWrites[vehicleKey{tenantID, vehicleID}]
}

func (s *Store) FixCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.fixes)
}

func (s *Store) TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tenants[tenantID]
	return ok, nil
}

func (s *Store) InsertTenant(ctx context.Context, tenant *tracking.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *tenant
	s.tenants[tenant.ID] = &copied
	return nil
}

func (s *Store) VehicleExists(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.vehicles[vehicleKey{tenantID, vehicleID}]
	return ok, nil
}

func (s *Store) ExistingVehicleIDs(ctx context.Context, tenantID uuid.UUID, vehicleIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := map[uuid.UUID]struct{}{}
	for _, vehicleID := range vehicleIDs {
		if _, ok := s.vehicles[vehicleKey{tenantID, vehicleID}]; ok {
			existing[vehicleID] = struct{}{}
		}
	}

	return existing, nil
}

func (s *Store) InsertVehicle(ctx context.Context, vehicle *tracking.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vehicleKey{vehicle.TenantID(), vehicle.ID()}
	if _, ok := s.vehicles[key]; ok {
		return fmt.Errorf("vehicle %s already exists", vehicle.ID())
	}
	if s.registrationTaken(vehicle) {
		return storage.ErrDuplicateRegistration
	}

	s.vehicles[key] = copyVehicle(vehicle)
	return nil
}

func (s *Store) GetVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, ok := s.vehicles[vehicleKey{tenantID, vehicleID}]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyVehicle(vehicle), nil
}

func (s *Store) UpdateVehicle(ctx context.Context, vehicle *tracking.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vehicleKey{vehicle.TenantID(), vehicle.ID()}
	if _, ok := s.vehicles[key]; !ok {
		return storage.ErrNotFound
	}
	if s.registrationTaken(vehicle) {
		return storage.ErrDuplicateRegistration
	}

	s.vehicles[key] = copyVehicle(vehicle)
	return nil
}

func (s *Store) ListVehicles(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*tracking.Vehicle, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var vehicles []*tracking.Vehicle
	for key, vehicle := range s.vehicles {
		if key.tenantID == tenantID {
			vehicles = append(vehicles, copyVehicle(vehicle))
		}
	}

	sort.Slice(vehicles, func(i, j int) bool {
		if !vehicles[i].CreatedAtUTC().Equal(vehicles[j].CreatedAtUTC()) {
			return vehicles[i].CreatedAtUTC().After(vehicles[j].CreatedAtUTC())
		}
		return vehicles[i].ID().String() < vehicles[j].ID().String()
	})

	total := int64(len(vehicles))
	if offset >= len(vehicles) {
		return []*tracking.Vehicle{}, total, nil
	}

	end := offset + limit
	if end > len(vehicles) {
		end = len(vehicles)
	}

	return vehicles[offset:end], total, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vehicleKey{tenantID, vehicleID}
	if _, ok := s.vehicles[key]; !ok {
		return storage.ErrNotFound
	}

	delete(s.vehicles, key)
	delete(s.latest, key)
	for id, fix := range s.fixes {
		if fix.TenantID() == tenantID && fix.VehicleID() == vehicleID {
			delete(s.fixes, id)
		}
	}

	return nil
}

func (s *Store) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest[vehicleKey{tenantID, vehicleID}], nil
}

func (s *Store) FixesReceivedBetween(ctx context.Context, tenantID, vehicleID uuid.UUID, from, to time.Time) ([]*tracking.GpsFix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fixes []*tracking.GpsFix
	for _, fix := range s.fixes {
		if fix.TenantID() != tenantID || fix.VehicleID() != vehicleID {
			continue
		}
		if fix.ReceivedAtUTC().Before(from) || !fix.ReceivedAtUTC().Before(to) {
			continue
		}
		fixes = append(fixes, fix)
	}

	sort.Slice(fixes, func(i, j int) bool {
		return tracking.CompareOrder(fixes[i].OrderKey(), fixes[j].OrderKey()) < 0
	})

	return fixes, nil
}

// registrationTaken must be called with the lock held.
func (s *Store) registrationTaken(vehicle *tracking.Vehicle) bool {
	registration := vehicle.Identity().RegistrationNumber
	if registration == nil {
		return false
	}

	for key, other := range s.vehicles {
		if key.tenantID != vehicle.TenantID() || key.vehicleID == vehicle.ID() {
			continue
		}
		if existing := other.Identity().RegistrationNumber; existing != nil && *existing == *registration {
			return true
		}
	}

	return false
}

func copyVehicle(vehicle *tracking.Vehicle) *tracking.Vehicle {
	copied, _ := tracking.RestoreVehicle(vehicle.TenantID(), vehicle.ID(), vehicle.Identity(), vehicle.Status(), vehicle.CreatedAtUTC())
	return copied
}
