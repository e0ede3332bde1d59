package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/serene-ai/serene-backend/internal/api/handlers"
	"github.com/serene-ai/serene-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Inbound webhook from the conversation platform
	api.Post("/webhooks/session-end", handlers.SessionEnd(svc))

	// Read path over the vector index
	api.Get("/search", handlers.Search(svc))
	api.Get("/search/owner/:id", handlers.SearchUserConversations(svc))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "serene-backend",
		})
	})
}
