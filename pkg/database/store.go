package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB implementation of storage.Store.
type Store struct {
	db *mongo.Database
}

var _ storage.Store = (*Store)(nil)

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// GlobalStore wraps the database opened by Connect.
func GlobalStore() *Store {
	return NewStore(MongoGlobalInstance.Database)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func isDuplicateRegistration(err error) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), registrationIndexName)
}

func (s *Store) TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	count, err := s.collection(tenantsCollection).CountDocuments(ctx, bson.M{"_id": tenantID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *Store) InsertTenant(ctx context.Context, tenant *tracking.Tenant) error {
	_, err := s.collection(tenantsCollection).InsertOne(ctx, tenantDocument{
		ID:        tenant.ID.String(),
		Name:      tenant.Name,
		CreatedAt: tenant.CreatedAtUTC,
	})

	return err
}

func (s *Store) VehicleExists(ctx context.Context, tenantID, vehicleID uuid.UUID) (bool, error) {
	count, err := s.collection(vehiclesCollection).CountDocuments(ctx, bson.M{
		"_id":      vehicleID.String(),
		"tenantid": tenantID.String(),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s *Store) ExistingVehicleIDs(ctx context.Context, tenantID uuid.UUID, vehicleIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	existing := map[uuid.UUID]struct{}{}
	if len(vehicleIDs) == 0 {
		return existing, nil
	}

	ids := make([]string, len(vehicleIDs))
	for i, id := range vehicleIDs {
		ids[i] = id.String()
	}

	cursor, err := s.collection(vehiclesCollection).Find(ctx, bson.M{
		"tenantid": tenantID.String(),
		"_id":      bson.M{"$in": ids},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var document struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&document); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(document.ID)
		if err != nil {
			return nil, fmt.Errorf("vehicle id %q: %w", document.ID, err)
		}
		existing[id] = struct{}{}
	}

	return existing, cursor.Err()
}

func (s *Store) InsertVehicle(ctx context.Context, vehicle *tracking.Vehicle) error {
	_, err := s.collection(vehiclesCollection).InsertOne(ctx, newVehicleDocument(vehicle))
	if isDuplicateRegistration(err) {
		return storage.ErrDuplicateRegistration
	}

	return err
}

func (s *Store) GetVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.Vehicle, error) {
	var document vehicleDocument
	err := s.collection(vehiclesCollection).FindOne(ctx, bson.M{
		"_id":      vehicleID.String(),
		"tenantid": tenantID.String(),
	}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return document.vehicle()
}

func (s *Store) UpdateVehicle(ctx context.Context, vehicle *tracking.Vehicle) error {
	result, err := s.collection(vehiclesCollection).ReplaceOne(ctx, bson.M{
		"_id":      vehicle.ID().String(),
		"tenantid": vehicle.TenantID().String(),
	}, newVehicleDocument(vehicle))
	if isDuplicateRegistration(err) {
		return storage.ErrDuplicateRegistration
	}
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Store) ListVehicles(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*tracking.Vehicle, int64, error) {
	filter := bson.M{"tenantid": tenantID.String()}

	total, err := s.collection(vehiclesCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.collection(vehiclesCollection).Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdat", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	vehicles := []*tracking.Vehicle{}
	for cursor.Next(ctx) {
		var document vehicleDocument
		if err := cursor.Decode(&document); err != nil {
			return nil, 0, err
		}

		vehicle, err := document.vehicle()
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, total, cursor.Err()
}

// DeleteVehicle removes the vehicle, its fixes and its snapshot in one transaction.
func (s *Store) DeleteVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) error {
	filter := bson.M{"tenantid": tenantID.String(), "vehicleid": vehicleID.String()}

	return s.withSession(ctx, func(ctx context.Context) error {
		result, err := s.collection(vehiclesCollection).DeleteOne(ctx, bson.M{
			"_id":      vehicleID.String(),
			"tenantid": tenantID.String(),
		})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return storage.ErrNotFound
		}

		if _, err := s.collection(gpsFixesCollection).DeleteMany(ctx, filter); err != nil {
			return err
		}
		if _, err := s.collection(latestLocationsCollection).DeleteOne(ctx, filter); err != nil {
			return err
		}

		return nil
	})
}

func (s *Store) LatestLocation(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.VehicleLatestLocation, error) {
	var document latestLocationDocument
	err := s.collection(latestLocationsCollection).FindOne(ctx, bson.M{
		"tenantid":  tenantID.String(),
		"vehicleid": vehicleID.String(),
	}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return document.snapshot()
}

func (s *Store) FixesReceivedBetween(ctx context.Context, tenantID, vehicleID uuid.UUID, from, to time.Time) ([]*tracking.GpsFix, error) {
	cursor, err := s.collection(gpsFixesCollection).Find(ctx, bson.M{
		"tenantid":   tenantID.String(),
		"vehicleid":  vehicleID.String(),
		"receivedat": bson.M{"$gte": from, "$lt": to},
	}, options.Find().SetSort(bson.D{{Key: "devicetimenanos", Value: 1}, {Key: "devicesequence", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var fixes []*tracking.GpsFix
	for cursor.Next(ctx) {
		var document gpsFixDocument
		if err := cursor.Decode(&document); err != nil {
			return nil, err
		}

		fix, err := document.gpsFix()
		if err != nil {
			return nil, err
		}
		fixes = append(fixes, fix)
	}

	return fixes, cursor.Err()
}
