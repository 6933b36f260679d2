// Package vehicles manages the vehicles of a tenant and serves their latest location views.
package vehicles

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200

	maxRegistrationLength = 32
	maxNameLength         = 128
	maxExternalIDLength   = 128
)

// LatestLocations serves snapshots for reads and drops them when a vehicle goes away.
type LatestLocations interface {
	storage.LatestLocationReader

	Invalidate(ctx context.Context, tenantID, vehicleID uuid.UUID) error
}

type storeLatestLocations struct {
	storage.LatestLocationReader
}

func (storeLatestLocations) Invalidate(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

type Service struct {
	store  storage.Store
	latest LatestLocations
	now    func() time.Time
	newID  func() uuid.UUID
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

// WithLatestLocations reads snapshots through latest instead of the store.
func WithLatestLocations(latest LatestLocations) Option {
	return func(s *Service) { s.latest = latest }
}

func NewService(store storage.Store, opts ...Option) *Service {
	service := &Service{
		store:  store,
		latest: storeLatestLocations{store},
		now:    time.Now,
		newID:  uuid.New,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

type Identity struct {
	RegistrationNumber *string
	Name               *string
	ExternalID         *string
}

// Patch holds the fields to change. Nil fields are left alone and blank strings clear.
type Patch struct {
	RegistrationNumber *string
	Name               *string
	ExternalID         *string
	Status             *tracking.VehicleStatus
}

type Page struct {
	Items    []*tracking.Vehicle
	Page     int
	PageSize int
	Total    int64
}

func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, identity Identity) (*tracking.Vehicle, error) {
	if err := checkLengths(identity.RegistrationNumber, identity.Name, identity.ExternalID); err != nil {
		return nil, err
	}

	vehicle, err := tracking.NewVehicle(
		tenantID,
		s.newID(),
		tracking.NewVehicleIdentity(identity.RegistrationNumber, identity.Name, identity.ExternalID),
		s.now().UTC(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertVehicle(ctx, vehicle); err != nil {
		if errors.Is(err, storage.ErrDuplicateRegistration) {
			return nil, newError(CodeDuplicateRegistration, MessageDuplicateRegistration)
		}

		return nil, fmt.Errorf("inserting vehicle: %w", err)
	}

	log.Info().Str("tenant", tenantID.String()).Str("vehicle", vehicle.ID().String()).Msg("Created vehicle")

	return vehicle, nil
}

func (s *Service) Get(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.Vehicle, error) {
	vehicle, err := s.store.GetVehicle(ctx, tenantID, vehicleID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, fmt.Errorf("loading vehicle %s: %w", vehicleID, err)
	}

	return vehicle, nil
}

// List returns one page of the tenant's vehicles, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (*Page, error) {
	if page < 1 {
		return nil, newError(CodeInvalidPaging, MessagePage)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, newError(CodeInvalidPaging, MessagePageSize)
	}

	items, total, err := s.store.ListVehicles(ctx, tenantID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}

	return &Page{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *Service) Patch(ctx context.Context, tenantID, vehicleID uuid.UUID, patch Patch) (*tracking.Vehicle, error) {
	if err := checkLengths(patch.RegistrationNumber, patch.Name, patch.ExternalID); err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, newError(CodeInvalidPayload, fmt.Sprintf("status %d is not a known vehicle status", *patch.Status))
	}

	vehicle, err := s.Get(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}

	if patch.RegistrationNumber != nil {
		vehicle.SetRegistration(patch.RegistrationNumber)
	}
	if patch.Name != nil {
		vehicle.Rename(patch.Name)
	}
	if patch.ExternalID != nil {
		vehicle.SetExternalID(patch.ExternalID)
	}
	if patch.Status != nil {
		if err := vehicle.SetStatus(*patch.Status); err != nil {
			return nil, &Error{Code: CodeInvalidStatusTransition, Message: err.Error(), cause: err}
		}
	}

	if err := s.store.UpdateVehicle(ctx, vehicle); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateRegistration):
			return nil, newError(CodeDuplicateRegistration, MessageDuplicateRegistration)
		case errors.Is(err, storage.ErrNotFound):
			return nil, notFound()
		}

		return nil, fmt.Errorf("updating vehicle %s: %w", vehicleID, err)
	}

	return vehicle, nil
}

// Delete removes the vehicle together with its fixes and latest location.
func (s *Service) Delete(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	err := s.store.DeleteVehicle(ctx, tenantID, vehicleID)
	if errors.Is(err, storage.ErrNotFound) {
		return notFound()
	}
	if err != nil {
		return fmt.Errorf("deleting vehicle %s: %w", vehicleID, err)
	}

	if err := s.latest.Invalidate(ctx, tenantID, vehicleID); err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID.String()).Msg("Failed to invalidate cached latest location")
	}

	log.Info().Str("tenant", tenantID.String()).Str("vehicle", vehicleID.String()).Msg("Deleted vehicle")

	return nil
}

func checkLengths(registrationNumber, name, externalID *string) *Error {
	limits := []struct {
		field string
		value *string
		max   int
	}{
		{"registrationNumber", registrationNumber, maxRegistrationLength},
		{"name", name, maxNameLength},
		{"externalId", externalID, maxExternalIDLength},
	}

	for _, limit := range limits {
		if limit.value != nil && utf8.RuneCountInString(*limit.value) > limit.max {
			return newError(CodeInvalidPayload, fmt.Sprintf("%s must be %d characters or fewer", limit.field, limit.max))
		}
	}

	return nil
}
