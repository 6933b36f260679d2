package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tenantsCollection         = "tenants"
	vehiclesCollection        = "vehicles"
	gpsFixesCollection        = "gps_fixes"
	latestLocationsCollection = "vehicle_latest_locations"

	registrationIndexName   = "tenant_registration_unique"
	latestLocationIndexName = "tenant_vehicle_unique"
)

func createIndexes(ctx context.Context, db *mongo.Database) {
	createVehiclesIndexes(ctx, db)
	createGpsFixesIndexes(ctx, db)
	createLatestLocationsIndexes(ctx, db)
}

func createVehiclesIndexes(ctx context.Context, db *mongo.Database) {
	_, err := db.Collection(vehiclesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tenantid", Value: 1}, {Key: "createdat", Value: -1}},
		},
		{
			// Vehicles without a registration number are not constrained
			Keys: bson.D{{Key: "tenantid", Value: 1}, {Key: "registrationnumber", Value: 1}},
			Options: options.Index().
				SetName(registrationIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"registrationnumber": bson.M{"$type": "string"}}),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createGpsFixesIndexes(ctx context.Context, db *mongo.Database) {
	_, err := db.Collection(gpsFixesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tenantid", Value: 1}, {Key: "vehicleid", Value: 1}, {Key: "receivedat", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "tenantid", Value: 1}, {Key: "vehicleid", Value: 1}, {Key: "devicetimenanos", Value: -1}, {Key: "devicesequence", Value: -1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createLatestLocationsIndexes(ctx context.Context, db *mongo.Database) {
	_, err := db.Collection(latestLocationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantid", Value: 1}, {Key: "vehicleid", Value: 1}},
			Options: options.Index().SetName(latestLocationIndexName).SetUnique(true),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
