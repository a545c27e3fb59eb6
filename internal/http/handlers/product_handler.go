package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alquitones/internal/log"
	"alquitones/internal/remote"
	"alquitones/internal/validate"
)

type ProductHandler struct {
	API func(sid string) remote.API
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	p, err := h.API(c.Cookies("sid")).Instrument(c.UserContext(), id)
	if err != nil {
		return fail(c, "instrument.get", err, nil)
	}
	return c.JSON(p)
}

func (h *ProductHandler) ListRatings(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	sum, err := h.API(c.Cookies("sid")).Ratings(c.UserContext(), id)
	if err != nil {
		return fail(c, "ratings.list", err, nil)
	}
	return c.JSON(sum)
}

type ratingInput struct {
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

func (h *ProductHandler) Rate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "instrument")
	}
	var in ratingInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	u := currentUser(c)
	r, err := h.API(c.Cookies("sid")).SubmitRating(c.UserContext(), u, id, in.Score, strings.TrimSpace(in.Comment))
	if err != nil {
		return fail(c, "ratings.submit", err, map[string]any{"instrument_id": id})
	}
	log.Audit(c, "ratings.submit", map[string]any{"instrument_id": id, "user_id": u.ID, "score": r.Score})
	return created(c, r)
}
