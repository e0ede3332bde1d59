package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/services"
)

// SessionEnd handles the conversation-ended webhook. Validation failures are
// rejected before any side effect; only a failed session write yields a 500.
func SessionEnd(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req services.FinalizeRequest

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		session, err := svc.Finalizer.Finalize(c.Context(), req)
		if err != nil {
			if models.IsValidation(err) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(session)
	}
}
