package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/geotrack/pkg/api/routes"
	"github.com/travigo/geotrack/pkg/vehicles"
)

const Version = "v1.0"

type Dependencies struct {
	Ingester  routes.FixIngester
	Vehicles  *vehicles.Service
	Tenants   TenantDirectory
	Publisher routes.BatchPublisher

	APIKeys      APIKeyConfig
	HealthChecks map[string]routes.HealthCheck
}

func NewApp(deps Dependencies) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	webApp.Use(NewLogger())
	webApp.Use(NewAPIKeyAuth(deps.APIKeys))
	webApp.Use(NewTenantResolver(deps.Tenants))

	webApp.Get("/version", routes.APIVersion(Version))
	webApp.Get("/health", routes.Health(Version, deps.HealthChecks))

	vehiclesGroup := webApp.Group("/vehicles")
	routes.VehicleGpsFixesRouter(vehiclesGroup, deps.Ingester)
	routes.VehiclesRouter(vehiclesGroup, deps.Vehicles)

	routes.GpsFixesRouter(webApp.Group("/gps-fixes"), deps.Ingester, deps.Publisher)

	return webApp
}

func SetupServer(listen string, deps Dependencies) error {
	return NewApp(deps).Listen(listen)
}

// errorHandler answers fiber's own errors, such as unknown routes, in the API error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "invalid_request"
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		}
		return routes.SendError(c, fiberErr.Code, code, fiberErr.Message)
	}

	return routes.SendError(c, fiber.StatusInternalServerError, routes.CodeInternalError, routes.MessageInternalError)
}
