package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "alquitones/internal/log"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type FavoritesHandler struct {
	Favs *services.FavoritesService
}

func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Favs.List(currentUser(c).ID))
}

func (h *FavoritesHandler) Save(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	u := currentUser(c)
	if err := h.Favs.Save(c.UserContext(), u.ID, pid); err != nil {
		return fail(c, "favorites.save", err, map[string]any{"instrument_id": pid})
	}
	applog.Audit(c, "favorites.save", map[string]any{"instrument_id": pid, "user_id": u.ID})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FavoritesHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	u := currentUser(c)
	if err := h.Favs.Unsave(c.UserContext(), u.ID, pid); err != nil {
		return fail(c, "favorites.unsave", err, map[string]any{"instrument_id": pid})
	}
	applog.Audit(c, "favorites.unsave", map[string]any{"instrument_id": pid, "user_id": u.ID})
	return c.SendStatus(fiber.StatusNoContent)
}
