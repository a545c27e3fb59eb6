package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alquitones/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.ListCategories())
}

// Counts answers {categoryId: instruments}; empty categories report 0.
func (h *CategoryHandler) Counts(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.CountByCategory())
}

func (h *CategoryHandler) Specifications(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.ListSpecifications())
}
