package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
	"alquitones/internal/remote"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Admin   *services.AdminService
	Res     *services.ReservationService
	// API returns the marketplace API for the caller's session.
	API        func(sid string) remote.API
	EnrichSize int
}

func idParam(c *fiber.Ctx) (int, bool) { return validate.ID(c.Params("id")) }

// ---------- instruments ----------

func (h *AdminHandler) CreateInstrument(c *fiber.Ctx) error {
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.instruments.create", err, nil)
	}
	applog.Audit(c, "admin.instruments.create", map[string]any{"instrument_id": p.ID, "name": p.Name})
	return created(c, p)
}

func (h *AdminHandler) UpdateInstrument(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "instrument")
	}
	var patch domain.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "admin.instruments.update", err, map[string]any{"instrument_id": id})
	}
	applog.Audit(c, "admin.instruments.update", map[string]any{"instrument_id": id})
	return c.JSON(p)
}

func (h *AdminHandler) DeleteInstrument(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "instrument")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.instruments.delete", err, map[string]any{"instrument_id": id})
	}
	applog.Audit(c, "admin.instruments.delete", map[string]any{"instrument_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- categories ----------

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var in domain.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.categories.create", err, nil)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return created(c, cat)
}

func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "category")
	}
	var patch domain.CategoryPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	cat, err := h.Catalog.UpdateCategory(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "admin.categories.update", err, map[string]any{"category_id": id})
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return c.JSON(cat)
}

// DeleteCategory refuses categories that still hold instruments unless
// ?cascade=true is given.
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "category")
	}
	cascade := c.QueryBool("cascade", false)
	removed, err := h.Catalog.DeleteCategory(c.UserContext(), id, cascade)
	if err != nil {
		return fail(c, "admin.categories.delete", err, map[string]any{"category_id": id, "cascade": cascade})
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id, "cascade": cascade, "instruments_removed": removed})
	return c.JSON(fiber.Map{"deleted": id, "instrumentsRemoved": removed})
}

// ---------- specifications ----------

func (h *AdminHandler) CreateSpecification(c *fiber.Ctx) error {
	var in domain.SpecificationInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	sp, err := h.Catalog.CreateSpecification(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.specifications.create", err, nil)
	}
	applog.Audit(c, "admin.specifications.create", map[string]any{"specification_id": sp.ID})
	return created(c, sp)
}

func (h *AdminHandler) UpdateSpecification(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "specification")
	}
	var patch domain.SpecificationPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	sp, err := h.Catalog.UpdateSpecification(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "admin.specifications.update", err, map[string]any{"specification_id": id})
	}
	applog.Audit(c, "admin.specifications.update", map[string]any{"specification_id": id})
	return c.JSON(sp)
}

func (h *AdminHandler) DeleteSpecification(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "specification")
	}
	if err := h.Catalog.DeleteSpecification(c.UserContext(), id); err != nil {
		return fail(c, "admin.specifications.delete", err, map[string]any{"specification_id": id})
	}
	applog.Audit(c, "admin.specifications.delete", map[string]any{"specification_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- users ----------

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	return c.JSON(h.Admin.ListUsers())
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "user")
	}
	u, err := h.Admin.GetUser(id)
	if err != nil {
		return fail(c, "admin.users.get", err, nil)
	}
	return c.JSON(u)
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var in domain.UserInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	u, err := h.Admin.CreateUser(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.users.create", err, nil)
	}
	applog.Audit(c, "admin.users.create", map[string]any{"user_id": u.ID, "role": u.Role})
	return created(c, u)
}

// UpdateUser changes profile fields, role or the active flag. Admins cannot
// demote or disable themselves.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "user")
	}
	var patch domain.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	if me := currentUser(c); me.ID == id {
		if (patch.Role != nil && *patch.Role != domain.RoleAdmin) || (patch.IsActive != nil && !*patch.IsActive) {
			return fail(c, "admin.users.update", domain.Invalid("admins cannot demote or disable themselves"), map[string]any{"user_id": id})
		}
	}
	u, err := h.Admin.UpdateUser(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "admin.users.update", err, map[string]any{"user_id": id})
	}
	applog.Audit(c, "admin.users.update", map[string]any{"user_id": id, "role": u.Role, "active": u.IsActive})
	return c.JSON(u)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "user")
	}
	if currentUser(c).ID == id {
		return fail(c, "admin.users.delete", domain.Invalid("admins cannot delete themselves"), map[string]any{"user_id": id})
	}
	if err := h.Admin.DeleteUser(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.delete", err, map[string]any{"user_id": id})
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- reservations & dashboard ----------

// Reservations lists every reservation with its instrument and user attached.
func (h *AdminHandler) Reservations(c *fiber.Ctx) error {
	api := h.API(c.Cookies("sid"))
	list, err := api.Reservations(c.UserContext())
	if err != nil {
		return fail(c, "admin.reservations.list", err, nil)
	}
	return c.JSON(remote.NewEnricher(api, h.EnrichSize).Reservations(c.UserContext(), list))
}

// ExpireReservations closes active reservations whose last day has passed.
func (h *AdminHandler) ExpireReservations(c *fiber.Ctx) error {
	n, err := h.Res.EndExpired(c.UserContext())
	if err != nil {
		return fail(c, "admin.reservations.expire", err, nil)
	}
	applog.Audit(c, "admin.reservations.expire", map[string]any{"ended": n})
	return c.JSON(fiber.Map{"ended": n})
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.Admin.Stats())
}
