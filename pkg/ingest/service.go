// Package ingest validates incoming GPS fixes, appends them to the fix log and keeps
// each vehicle's latest location snapshot up to date.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
)

// Tenant identifies the caller's tenant. The zero value means no tenant was supplied.
type Tenant struct {
	ID uuid.UUID
}

func (t Tenant) Present() bool {
	return t.ID != uuid.Nil
}

// Store is the subset of storage the ingestion paths need.
type Store interface {
	storage.VehicleDirectory

	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error
}

// Report summarises one ingestion call after it has been committed or rejected.
type Report struct {
	TenantID      uuid.UUID
	Batch         bool
	ReceivedAtUTC time.Time
	Accepted      int
	Rejected      []ItemResult
	Applied       []*tracking.VehicleLatestLocation
}

// Observer is notified after each ingestion call. Observers must not fail the call.
type Observer interface {
	Observe(ctx context.Context, report Report)
}

type ObserverFunc func(ctx context.Context, report Report)

func (f ObserverFunc) Observe(ctx context.Context, report Report) {
	f(ctx, report)
}

type Service struct {
	store     Store
	now       func() time.Time
	newID     func() uuid.UUID
	retry     RetryConfig
	observers []Observer
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

func WithRetryConfig(config RetryConfig) Option {
	return func(s *Service) { s.retry = config }
}

func WithObservers(observers ...Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, observers...) }
}

func NewService(store Store, opts ...Option) *Service {
	service := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.New,
		retry: defaultRetryConfig,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// applyLatest compares fix with the vehicle's snapshot inside tx and replaces the
// snapshot when the fix supersedes it. It returns the new snapshot or nil.
func (s *Service) applyLatest(ctx context.Context, tx storage.Tx, tenantID uuid.UUID, fix *tracking.GpsFix) (*tracking.VehicleLatestLocation, error) {
	current, err := tx.LatestLocation(ctx, tenantID, fix.VehicleID())
	if err != nil {
		return nil, err
	}

	if !tracking.ShouldReplace(current, fix) {
		return nil, nil
	}

	var routeScheduleID *uuid.UUID
	if current != nil {
		routeScheduleID = current.RouteScheduleID()
	}

	next, err := tracking.CreateSnapshot(tenantID, fix.VehicleID(), fix, routeScheduleID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.ReplaceLatestLocation(ctx, current, next); err != nil {
		return nil, err
	}

	return next, nil
}

// withRetry repeats operation while it loses the optimistic race on a snapshot.
func (s *Service) withRetry(ctx context.Context, operation func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.InitialInterval
	policy.MaxInterval = s.retry.MaxInterval
	policy.MaxElapsedTime = s.retry.MaxElapsedTime
	policy.Reset()

	return backoff.RetryNotify(func() error {
		err := operation()
		if err == nil || errors.Is(err, storage.ErrLatestLocationConflict) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("wait", wait.String()).Msg("Latest location changed concurrently, retrying")
	})
}

func (s *Service) notify(ctx context.Context, report Report) {
	if len(s.observers) == 0 {
		return
	}

	p := pool.New()
	for _, observer := range s.observers {
		observer := observer
		p.Go(func() {
			observer.Observe(ctx, report)
		})
	}
	p.Wait()
}
