// Package admin holds operator commands for tenants and vehicles.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/database"
	"github.com/travigo/geotrack/pkg/storage"
	"github.com/travigo/geotrack/pkg/tracking"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Tenant and vehicle administration",
		Subcommands: []*cli.Command{
			{
				Name:  "tenant-create",
				Usage: "create a tenant",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "tenant display name"},
					&cli.StringFlag{Name: "id", Usage: "tenant id, generated when omitted"},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect(context.Background())

					tenant, err := CreateTenant(c.Context, database.GlobalStore(), c.String("id"), c.String("name"), time.Now())
					if err != nil {
						return err
					}

					log.Info().Str("tenant", tenant.ID.String()).Str("name", tenant.Name).Msg("Created tenant")
					return nil
				},
			},
			{
				Name:  "vehicle-inspect",
				Usage: "print a vehicle and its latest location",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tenant", Required: true},
					&cli.StringFlag{Name: "vehicle", Required: true},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					defer database.Disconnect(context.Background())

					inspection, err := InspectVehicle(c.Context, database.GlobalStore(), c.String("tenant"), c.String("vehicle"))
					if err != nil {
						return err
					}

					pretty.Println(inspection)
					return nil
				},
			},
		},
	}
}

func CreateTenant(ctx context.Context, tenants storage.TenantStore, rawID, name string, now time.Time) (*tracking.Tenant, error) {
	id := uuid.New()
	if rawID != "" {
		parsed, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("tenant id: %w", err)
		}
		id = parsed
	}

	tenant, err := tracking.NewTenant(id, name, now.UTC())
	if err != nil {
		return nil, err
	}

	if err := tenants.InsertTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("inserting tenant: %w", err)
	}

	return tenant, nil
}

type Inspection struct {
	Vehicle        tracking.VehicleIdentity
	Status         string
	CreatedAtUTC   time.Time
	LatestLocation *tracking.VehicleLatestLocationParams
}

type inspectStore interface {
	GetVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*tracking.Vehicle, error)
	storage.LatestLocationReader
}

func InspectVehicle(ctx context.Context, store inspectStore, rawTenant, rawVehicle string) (*Inspection, error) {
	tenantID, err := uuid.Parse(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("tenant id: %w", err)
	}
	vehicleID, err := uuid.Parse(rawVehicle)
	if err != nil {
		return nil, fmt.Errorf("vehicle id: %w", err)
	}

	vehicle, err := store.GetVehicle(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}

	inspection := &Inspection{
		Vehicle:      vehicle.Identity(),
		Status:       vehicle.Status().String(),
		CreatedAtUTC: vehicle.CreatedAtUTC(),
	}

	latest, err := store.LatestLocation(ctx, tenantID, vehicleID)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		params := latest.Params()
		inspection.LatestLocation = &params
	}

	return inspection, nil
}
