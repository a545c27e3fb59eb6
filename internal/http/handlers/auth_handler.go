package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alquitones/internal/domain"
	"alquitones/internal/log"
	"alquitones/internal/services"
	"alquitones/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable behind TLS
		Expires:  expires,
	})
}

// rotateSID drops whatever the old cookie pointed at and hands out sid.
func (h *AuthHandler) rotateSID(c *fiber.Ctx, sid string) {
	if old := c.Cookies("sid"); old != "" && old != sid {
		_ = h.Auth.ForSession(old).Logout(c.UserContext())
	}
	setSID(c, sid, time.Time{})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok || !validate.Password(in.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(HTTPError{Message: domain.ErrInvalidCredentials.Error(), Kind: "invalid_credentials"})
	}

	// the current session survives a failed attempt
	sid := uuid.NewString()
	u, err := h.Auth.ForSession(sid).Login(c.UserContext(), email, in.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrAccountDisabled) {
			return fail(c, "auth.login", err, map[string]any{"email": email})
		}
		return fail(c, "auth.login", err, nil)
	}
	h.rotateSID(c, sid)
	log.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.JSON(u)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		if err := h.Auth.ForSession(sid).Logout(c.UserContext()); err != nil {
			return fail(c, "auth.logout", err, nil)
		}
	}
	setSID(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	username, ok := validate.Username(in.Username)
	if !ok {
		return badRequest(c, "username")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return badRequest(c, "email")
	}
	if !validate.Password(in.Password) {
		return badRequest(c, "password")
	}
	u, err := h.Auth.Register(c.UserContext(), username, email, in.Password)
	if err != nil {
		return fail(c, "auth.register", err, map[string]any{"email": email})
	}
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return created(c, u)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}
