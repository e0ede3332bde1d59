package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/serene-ai/serene-backend/internal/models"
	"github.com/serene-ai/serene-backend/internal/search"
	"github.com/serene-ai/serene-backend/internal/services"
)

const (
	defaultSearchLimit  = 5
	maxSearchLimit      = 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 50
)

// Search runs a semantic/fact query over conversation summaries
func Search(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query parameter q is required",
			})
		}

		limit := c.QueryInt("limit", defaultSearchLimit)
		if limit < 1 || limit > maxSearchLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be between 1 and 20",
			})
		}

		results, err := svc.Search.Search(c.Context(), search.Request{
			Query:    query,
			Owner:    c.Query("owner"),
			TopK:     limit,
			MinScore: search.DefaultMinScore,
		})
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

		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}

// SearchUserConversations lists or searches one owner's conversation
// history. Without query text this is the browse-all mode ordered by
// recency.
func SearchUserConversations(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Params("id")
		if owner == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Owner id is required",
			})
		}

		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit < 1 || limit > maxHistoryLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be between 1 and 50",
			})
		}

		results, err := svc.Search.SearchUserConversations(c.Context(), owner, c.Query("q"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}
