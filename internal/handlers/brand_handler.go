package handlers

import (
	"strings"

	"stringtracker/internal/models"
	"stringtracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BrandHandler handles HTTP requests for the brand catalogue.
type BrandHandler struct {
	service *services.BrandService
}

// NewBrandHandler creates a new BrandHandler.
func NewBrandHandler(service *services.BrandService) *BrandHandler {
	return &BrandHandler{service: service}
}

// RegisterRoutes registers the brand routes with the Fiber app.
func (h *BrandHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/brands", h.HandleListBrands)
}

// HandleListBrands lists brands, optionally filtered by ?name= and ordered by ?sortDirection=.
func (h *BrandHandler) HandleListBrands(c *fiber.Ctx) error {
	brands, err := h.service.ListBrands(c.UserContext(),
		strings.TrimSpace(c.Query("name")),
		models.ParseSortDirection(c.Query("sortDirection")))
	if err != nil {
		zap.S().Named("brand_handler").Errorw("failed to list brands", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to retrieve brands")
	}
	return c.JSON(brands)
}
