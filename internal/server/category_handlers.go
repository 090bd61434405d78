package server

import (
	"pubhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/categories
func (s *Server) ListCategories(c *fiber.Ctx) error {
	catalog, err := s.categories.Catalog(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(catalog)
}

// GetFeatureFlags returns the evaluated flags for the current caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
