// Package storage declares the persistence contracts used by ingestion and vehicle management.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/tracking"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateRegistration = errors.New("duplicate registration number")

	// ErrVehicleNotFound is returned when a transaction writes fixes for a vehicle that
	// no longer exists when it commits.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrLatestLocationConflict is returned when the stored snapshot changed between read and replace.
	ErrLatestLocationConflict = errors.New("latest location changed concurrently")
)

type TenantStore interface {
	TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error)
	InsertTenant(ctx context.Context, tenant *tracking.Tenant) error
}

// VehicleDirectory answers vehicle existence questions scoped to one tenant.
type VehicleDirectory interface {
	VehicleExists(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error)
	ExistingVehicleIDs(ctx context.Context, tenantID uuid.UUID, vehicleIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
}

type LatestLocationReader interface {
	// LatestLocation returns nil without error when the vehicle has no snapshot yet.
	LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error)
}

type VehicleStore interface {
	VehicleDirectory

	InsertVehicle(ctx context.Context, vehicle *tracking.Vehicle) error
	GetVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle *tracking.Vehicle) error
	ListVehicles(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*tracking.Vehicle, int64, error)

	// DeleteVehicle removes the vehicle together with its fixes and latest location.
	DeleteVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) error
}

type FixReader interface {
	// FixesReceivedBetween returns fixes received in [from, to) ordered by device time.
	FixesReceivedBetween(ctx context.Context, tenantID, vehicleID uuid.UUID, from, to time.Time) ([]*tracking.GpsFix, error)
}

// Tx is one atomic unit of work. Nothing written through it is visible until the
// surrounding RunInTransaction returns nil.
type Tx interface {
	LatestLocationReader

	// InsertFixes fails the transaction with ErrVehicleNotFound if any fix's vehicle is
	// deleted before the transaction commits.
	InsertFixes(ctx context.Context, fixes []*tracking.GpsFix) error

	// ReplaceLatestLocation writes next over previous. previous is nil when no snapshot
	// existed at read time. If the stored row no longer matches previous the call fails
	// with ErrLatestLocationConflict.
	ReplaceLatestLocation(ctx context.Context, previous, next *tracking.VehicleLatestLocation) error
}

type Store interface {
	TenantStore
	VehicleStore
	LatestLocationReader
	FixReader

	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
