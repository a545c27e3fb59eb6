package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "alquitones/internal/log"
	"alquitones/internal/remote"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type ReservationHandler struct {
	Res *services.ReservationService
	API func(sid string) remote.API
}

// Create books the selection for the signed-in user. A rejected selection is
// a 409 whose body carries the evaluation.
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
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
	u := currentUser(c)
	b, err := h.API(c.Cookies("sid")).CreateReservation(c.UserContext(), u, req)
	r, result := b.Reservation, b.Availability
	if err != nil {
		he := MapErrorToHTTP(err)
		if he.Kind != "unavailable" {
			return fail(c, "reservation.create", err, map[string]any{"instrument_id": req.InstrumentID})
		}
		applog.Info(c, "reservation.rejected", map[string]any{
			"instrument_id": req.InstrumentID, "reason": result.Reason, "failed_day": result.FailedDay.String(),
		})
		return c.Status(he.Status).JSON(fiber.Map{"error": he.Message, "kind": he.Kind, "availability": result})
	}
	applog.Audit(c, "reservation.create", map[string]any{
		"reservation_id": r.ID, "instrument_id": r.InstrumentID, "user_id": u.ID,
		"start": r.StartDate.String(), "end": r.EndDate.String(), "quantity": r.Quantity,
		"total_price": r.TotalPrice.String(),
	})
	return created(c, b)
}

func (h *ReservationHandler) Mine(c *fiber.Ctx) error {
	return c.JSON(h.Res.ListByUser(currentUser(c).ID))
}

func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "reservation")
	}
	u := currentUser(c)
	r, err := h.API(c.Cookies("sid")).CancelReservation(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "reservation.cancel", err, map[string]any{"reservation_id": id, "user_id": u.ID})
	}
	applog.Audit(c, "reservation.cancel", map[string]any{"reservation_id": id, "user_id": u.ID})
	return c.JSON(r)
}
