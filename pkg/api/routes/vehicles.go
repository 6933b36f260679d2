package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/geotrack/pkg/contracts"
	"github.com/travigo/geotrack/pkg/vehicles"
)

type vehiclesHandlers struct {
	service *vehicles.Service
}

func VehiclesRouter(router fiber.Router, service *vehicles.Service) {
	handlers := &vehiclesHandlers{service: service}

	router.Post("/", handlers.create)
	router.Get("/", handlers.list)
	router.Get("/:vehicleId", handlers.get)
	router.Patch("/:vehicleId", handlers.patch)
	router.Delete("/:vehicleId", handlers.delete)
	router.Get("/:vehicleId/latest-location", handlers.latestLocation)
	router.Get("/:vehicleId/summary", handlers.summary)
}

// sendReduced writes value through sheriff. ?detail=full adds the detailed group.
func sendReduced(c *fiber.Ctx, status int, value interface{}) error {
	groups := []string{"basic"}
	if c.Query("detail") == "full" {
		groups = append(groups, "detailed")
	}

	reduced, err := sheriff.Marshal(&sheriff.Options{Groups: groups}, value)
	if err != nil {
		return sendFailure(c, fmt.Errorf("reducing response: %w", err))
	}

	return c.Status(status).JSON(reduced)
}

func (h *vehiclesHandlers) create(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	var request contracts.CreateVehicleRequest
	if err := decodeBody(c, &request); err != nil {
		return sendInvalidPayload(c, err)
	}

	vehicle, err := h.service.Create(c.UserContext(), t.ID, request.Identity())
	if err != nil {
		return sendFailure(c, err)
	}

	c.Location(fmt.Sprintf("/vehicles/%s", vehicle.ID()))
	return sendReduced(c, fiber.StatusCreated, contracts.NewVehicleResponse(vehicle))
}

func (h *vehiclesHandlers) list(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	page, ok := queryInt(c, "page", vehicles.DefaultPage)
	if !ok {
		return SendError(c, fiber.StatusBadRequest, string(vehicles.CodeInvalidPaging), vehicles.MessagePage)
	}
	pageSize, ok := queryInt(c, "pageSize", vehicles.DefaultPageSize)
	if !ok {
		return SendError(c, fiber.StatusBadRequest, string(vehicles.CodeInvalidPaging), vehicles.MessagePageSize)
	}

	result, err := h.service.List(c.UserContext(), t.ID, page, pageSize)
	if err != nil {
		return sendFailure(c, err)
	}

	return sendReduced(c, fiber.StatusOK, contracts.NewPagedVehiclesResponse(result))
}

func (h *vehiclesHandlers) get(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	vehicle, err := h.service.Get(c.UserContext(), t.ID, vehicleID)
	if err != nil {
		return sendFailure(c, err)
	}

	return sendReduced(c, fiber.StatusOK, contracts.NewVehicleResponse(vehicle))
}

func (h *vehiclesHandlers) patch(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	var request contracts.PatchVehicleRequest
	if err := decodeBody(c, &request); err != nil {
		return sendInvalidPayload(c, err)
	}

	vehicle, err := h.service.Patch(c.UserContext(), t.ID, vehicleID, request.Patch())
	if err != nil {
		return sendFailure(c, err)
	}

	return sendReduced(c, fiber.StatusOK, contracts.NewVehicleResponse(vehicle))
}

func (h *vehiclesHandlers) delete(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	if err := h.service.Delete(c.UserContext(), t.ID, vehicleID); err != nil {
		return sendFailure(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *vehiclesHandlers) latestLocation(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	staleAfter, ok := queryInt(c, "staleAfterSeconds", vehicles.DefaultStaleAfterSeconds)
	if !ok {
		return SendError(c, fiber.StatusBadRequest, string(vehicles.CodeInvalidQuery), vehicles.MessageStaleAfterSeconds)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	view, err := h.service.LatestLocation(c.UserContext(), t.ID, vehicleID, staleAfter)
	if err != nil {
		return sendFailure(c, err)
	}
	if view == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	response, err := contracts.NewLatestLocationResponse(view)
	if err != nil {
		return sendFailure(c, err)
	}

	return sendReduced(c, fiber.StatusOK, response)
}

func (h *vehiclesHandlers) summary(c *fiber.Ctx) error {
	t := tenant(c)
	if !t.Present() {
		return sendMissingTenant(c)
	}

	window, ok := queryInt(c, "windowMinutes", vehicles.DefaultWindowMinutes)
	if !ok {
		return SendError(c, fiber.StatusBadRequest, string(vehicles.CodeInvalidQuery), vehicles.MessageWindowMinutes)
	}
	staleAfter, ok := queryInt(c, "staleAfterSeconds", vehicles.DefaultStaleAfterSeconds)
	if !ok {
		return SendError(c, fiber.StatusBadRequest, string(vehicles.CodeInvalidQuery), vehicles.MessageStaleAfterSeconds)
	}

	vehicleID, ok := routeVehicleID(c)
	if !ok {
		return sendVehicleNotFound(c)
	}

	summary, err := h.service.Summary(c.UserContext(), t.ID, vehicleID, window, staleAfter)
	if err != nil {
		return sendFailure(c, err)
	}

	response, err := contracts.NewVehicleSummaryResponse(summary)
	if err != nil {
		return sendFailure(c, err)
	}

	return sendReduced(c, fiber.StatusOK, response)
}
