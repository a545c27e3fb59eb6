package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alquitones/internal/log"
	"alquitones/internal/remote"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type SearchHandler struct {
	API func(sid string) remote.API
}

// List serves GET /instruments?q=&category=&page=&pageSize=.
func (h *SearchHandler) List(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).JSON(HTTPError{Message: "enter a valid keyword (letters/numbers only)", Kind: "validation"})
	}
	categoryID := 0
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return badRequest(c, "category")
		}
		categoryID = id
	}
	page := validate.Page(c.Query("page"))
	size := validate.Page(c.Query("pageSize"))
	items, err := h.API(c.Cookies("sid")).Instruments(c.UserContext())
	if err != nil {
		return fail(c, "instruments.list", err, nil)
	}
	return c.JSON(services.BrowseItems(items, q, categoryID, page, size))
}
