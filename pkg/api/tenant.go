package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/api/routes"
)

const (
	codeInvalidTenant    = "invalid_tenant"
	messageInvalidTenant = "Tenant header must be a non-empty GUID."
)

type TenantDirectory interface {
	TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// NewTenantResolver stores the tenant named by the X-Tenant-Id header for the handlers.
// Requests without the header continue with no tenant.
func NewTenantResolver(tenants TenantDirectory) fiber.Handler {
	invalid := fmt.Sprintf("%s '%s'.", messageInvalidTenant, routes.TenantHeader)

	return func(c *fiber.Ctx) error {
		raw, ok := c.GetReqHeaders()[routes.TenantHeader]
		if !ok || len(raw) == 0 {
			return c.Next()
		}

		tenantID, err := uuid.Parse(raw[0])
		if err != nil || tenantID == uuid.Nil {
			return routes.SendError(c, fiber.StatusBadRequest, codeInvalidTenant, invalid)
		}

		exists, err := tenants.TenantExists(c.UserContext(), tenantID)
		if err != nil {
			log.Error().Err(err).Str("tenant", tenantID.String()).Msg("Failed to resolve tenant")
			return routes.SendError(c, fiber.StatusInternalServerError, routes.CodeInternalError, routes.MessageInternalError)
		}
		if !exists {
			return routes.SendError(c, fiber.StatusBadRequest, codeInvalidTenant, invalid)
		}

		c.Locals(routes.TenantLocal, tenantID)

		return c.Next()
	}
}
