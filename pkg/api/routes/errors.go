package routes

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/contracts"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/vehicles"
)

const (
	TenantHeader = "X-Tenant-Id"
	TenantLocal  = "tenant"

	CodeInternalError    = "internal_error"
	MessageInternalError = "An unexpected error occurred."

	codeInvalidPayload = "invalid_payload"
)

func SendError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(contracts.ErrorResponse{Error: code, Message: message})
}

// tenant returns the tenant resolved by the tenant middleware, or the zero Tenant.
func tenant(c *fiber.Ctx) ingest.Tenant {
	tenantID, _ := c.Locals(TenantLocal).(uuid.UUID)
	return ingest.Tenant{ID: tenantID}
}

func sendMissingTenant(c *fiber.Ctx) error {
	return SendError(c, fiber.StatusBadRequest, string(ingest.CodeMissingTenant),
		fmt.Sprintf("%s '%s'.", ingest.MessageMissingTenant, TenantHeader))
}

// queryInt reads an integer query parameter, falling back when it is absent.
func queryInt(c *fiber.Ctx, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// routeVehicleID parses the :vehicleId route parameter. Ids that are not GUIDs name no vehicle.
func routeVehicleID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("vehicleId"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func sendVehicleNotFound(c *fiber.Ctx) error {
	return SendError(c, fiber.StatusNotFound, string(vehicles.CodeVehicleNotFound), vehicles.MessageVehicleNotFound)
}

// decodeBody decodes the whole request. A value that cannot be decoded, such as an
// unparseable deviceTimeUtc in any batch item, fails the request as invalid_payload.
func decodeBody(c *fiber.Ctx, out interface{}) error {
	return c.App().Config().JSONDecoder(c.Body(), out)
}

func sendInvalidPayload(c *fiber.Ctx, err error) error {
	return SendError(c, fiber.StatusBadRequest, codeInvalidPayload, fmt.Sprintf("Request body is invalid: %s", err))
}

func sendFailure(c *fiber.Ctx, err error) error {
	var rejection *ingest.Rejection
	if errors.As(err, &rejection) {
		status := fiber.StatusBadRequest
		if rejection.Code == ingest.CodeVehicleNotFound {
			status = fiber.StatusNotFound
		}
		return SendError(c, status, string(rejection.Code), rejection.Message)
	}

	var vehicleErr *vehicles.Error
	if errors.As(err, &vehicleErr) {
		return SendError(c, vehicleErrorStatus(vehicleErr.Code), string(vehicleErr.Code), vehicleErr.Message)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")

	return SendError(c, fiber.StatusInternalServerError, CodeInternalError, MessageInternalError)
}

func vehicleErrorStatus(code vehicles.ErrorCode) int {
	switch code {
	case vehicles.CodeVehicleNotFound:
		return fiber.StatusNotFound
	case vehicles.CodeDuplicateRegistration, vehicles.CodeInvalidStatusTransition:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
