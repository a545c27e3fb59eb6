package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alquitones/internal/domain"
	"alquitones/internal/remote"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type InventoryHandler struct {
	Avail *services.AvailabilityService
	API   func(sid string) remote.API
}

// Daily serves GET /instruments/:id/availability?start=&end=. A missing end
// means a single day.
func (h *InventoryHandler) Daily(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	start, err := domain.ParseDate(strings.TrimSpace(c.Query("start")))
	if err != nil {
		return badRequest(c, "start")
	}
	end := start
	if raw := strings.TrimSpace(c.Query("end")); raw != "" {
		if end, err = domain.ParseDate(raw); err != nil {
			return badRequest(c, "end")
		}
	}
	days, err := h.API(c.Cookies("sid")).Availability(c.UserContext(), id, start, end)
	if err != nil {
		return fail(c, "availability.daily", err, map[string]any{"instrument_id": id})
	}
	return c.JSON(days)
}

// Check evaluates a selection without booking it. An Invalid result is still
// a 200; the body says why.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	var req services.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	if req.InstrumentID < 1 {
		return badRequest(c, "instrumentId")
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return badRequest(c, "dates")
	}
	res, err := h.Avail.Evaluate(req)
	if err != nil {
		return fail(c, "availability.check", err, map[string]any{"instrument_id": req.InstrumentID})
	}
	return c.JSON(res)
}
