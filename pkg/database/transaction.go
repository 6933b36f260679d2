package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type transaction struct {
	store *Store
}

// RunInTransaction runs fn inside a MongoDB transaction. The driver retries fn on
// transient transaction errors; any error returned by fn aborts it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.withSession(ctx, func(ctx context.Context) error {
		return fn(ctx, &transaction{store: s})
	})
}

func (s *Store) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessionContext mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessionContext)
	})

	return err
}

func (t *transaction) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error) {
	return t.store.LatestLocation(ctx, tenantID, vehicleID)
}

// InsertFixes stamps the fixes' vehicles before inserting. The stamp is a write to each
// vehicle document, so a DeleteVehicle racing this transaction hits a write conflict and
// one side is retried.
func (t *transaction) InsertFixes(ctx context.Context, fixes []*tracking.GpsFix) error {
	if len(fixes) == 0 {
		return nil
	}

	if err := t.stampVehicles(ctx, fixes); err != nil {
		return err
	}

	documents := make([]interface{}, len(fixes))
	for i, fix := range fixes {
		documents[i] = newGpsFixDocument(fix)
	}

	_, err := t.store.collection(gpsFixesCollection).InsertMany(ctx, documents)

	return err
}

func (t *transaction) ReplaceLatestLocation(ctx context.Context, previous, next *tracking.VehicleLatestLocation) error {
	collection := t.store.collection(latestLocationsCollection)
	document := newLatestLocationDocument(next)

	if previous == nil {
		_, err := collection.InsertOne(ctx, document)
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrLatestLocationConflict
		}

		return err
	}

	result, err := collection.ReplaceOne(ctx, bson.M{
		"tenantid":  previous.TenantID().String(),
		"vehicleid": previous.VehicleID().String(),
		"gpsfixid":  previous.GpsFixID().String(),
	}, document)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrLatestLocationConflict
	}

	return nil
}

func (t *transaction) stampVehicles(ctx context.Context, fixes []*tracking.GpsFix) error {
	byTenant := map[uuid.UUID]map[string]struct{}{}
	for _, fix := range fixes {
		if byTenant[fix.TenantID()] == nil {
			byTenant[fix.TenantID()] = map[string]struct{}{}
		}
		byTenant[fix.TenantID()][fix.VehicleID().String()] = struct{}{}
	}

	for tenantID, vehicles := range byTenant {
		ids := make([]string, 0, len(vehicles))
		for id := range vehicles {
			ids = append(ids, id)
		}

		result, err := t.store.collection(vehiclesCollection).UpdateMany(ctx, bson.M{
			"_id":      bson.M{"$in": ids},
			"tenantid": tenantID.String(),
		}, bson.M{
			"$set": bson.M{"lastingestedat": time.Now().UTC()},
		})
		if err != nil {
			return err
		}
		if result.MatchedCount != int64(len(ids)) {
			return fmt.Errorf("%d of %d vehicles for tenant %s: %w", result.MatchedCount, len(ids), tenantID, storage.ErrVehicleNotFound)
		}
	}

	return nil
}
