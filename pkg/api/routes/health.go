package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// Health answers "ok" while every check passes and 503 otherwise.
func Health(version string, checks map[string]HealthCheck) fiber.Handler {
	names := maps.Keys(checks)
	slices.Sort(names)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.Warn().Err(err).Str("check", name).Msg("Health check failed")
				results[name] = err.Error()
				status = "unhealthy"
				continue
			}
			results[name] = "ok"
		}

		code := fiber.StatusOK
		if status != "ok" {
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":       status,
			"version":      version,
			"timestampUtc": time.Now().UTC().Format(time.RFC3339Nano),
			"checks":       results,
		})
	}
}
