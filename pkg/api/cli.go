package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/api/routes"
	"github.com/travigo/geotrack/pkg/database"
	"github.com/travigo/geotrack/pkg/elastic_client"
	"github.com/travigo/geotrack/pkg/events"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/latestcache"
	"github.com/travigo/geotrack/pkg/realtime/fixqueue"
	"github.com/travigo/geotrack/pkg/redis_client"
	"github.com/travigo/geotrack/pkg/storage/memory"
	"github.com/travigo/geotrack/pkg/tracking"
	"github.com/travigo/geotrack/pkg/util"
	"github.com/travigo/geotrack/pkg/vehicles"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the GPS fix ingestion and vehicle web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "storage",
						Value: "mongo",
						Usage: "storage backend, mongo or memory",
					},
					&cli.StringSliceFlag{
						Name:  "memory-tenant",
						Usage: "tenant id to create when using memory storage",
					},
				},
				Action: func(c *cli.Context) error {
					apiKeys, err := LoadAPIKeyConfig(util.GetEnvironmentVariables()["GEOTRACK_API_KEYS_FILE"])
					if err != nil {
						return err
					}

					var deps Dependencies
					switch c.String("storage") {
					case "mongo":
						deps, err = mongoDependencies()
					case "memory":
						deps, err = memoryDependencies(c.Context, c.StringSlice("memory-tenant"))
					default:
						return fmt.Errorf("unknown storage %q", c.String("storage"))
					}
					if err != nil {
						return err
					}

					deps.APIKeys = apiKeys

					log.Info().Str("listen", c.String("listen")).Str("storage", c.String("storage")).Msg("Starting web api")

					return SetupServer(c.String("listen"), deps)
				},
			},
		},
	}
}

func mongoDependencies() (Dependencies, error) {
	if err := database.Connect(); err != nil {
		return Dependencies{}, err
	}
	if err := elastic_client.Connect(false); err != nil {
		return Dependencies{}, err
	}
	if err := redis_client.Connect(); err != nil {
		return Dependencies{}, err
	}

	store := database.GlobalStore()
	latest := latestcache.New(redis_client.Client, store, latestcache.GetTTL())

	publisher, err := fixqueue.NewPublisher(redis_client.QueueConnection)
	if err != nil {
		return Dependencies{}, err
	}

	return Dependencies{
		Ingester: ingest.NewService(store,
			ingest.WithRetryConfig(ingest.GetRetryConfig()),
			ingest.WithObservers(latest, events.NewSink()),
		),
		Vehicles:  vehicles.NewService(store, vehicles.WithLatestLocations(latest)),
		Tenants:   store,
		Publisher: publisher,
		HealthChecks: map[string]routes.HealthCheck{
			"mongodb": func(ctx context.Context) error {
				return database.MongoGlobalInstance.Client.Ping(ctx, nil)
			},
			"redis": func(ctx context.Context) error {
				return redis_client.Client.Ping(ctx).Err()
			},
		},
	}, nil
}

func memoryDependencies(ctx context.Context, tenantIDs []string) (Dependencies, error) {
	store := memory.New()

	for _, raw := range tenantIDs {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			return Dependencies{}, fmt.Errorf("memory tenant %q: %w", raw, err)
		}

		tenant, err := tracking.NewTenant(tenantID, raw, time.Now().UTC())
		if err != nil {
			return Dependencies{}, err
		}
		if err := store.InsertTenant(ctx, tenant); err != nil {
			return Dependencies{}, err
		}
	}

	return Dependencies{
		Ingester: ingest.NewService(store, ingest.WithRetryConfig(ingest.GetRetryConfig())),
		Vehicles: vehicles.NewService(store),
		Tenants:  store,
	}, nil
}
