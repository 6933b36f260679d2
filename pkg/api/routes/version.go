package routes

import "github.com/gofiber/fiber/v2"

func APIVersion(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version": version,
		})
	}
}
