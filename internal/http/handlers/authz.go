package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
	"alquitones/internal/services"
)

const userKey = "user"

// sessionUser resolves the signed-in user for the sid cookie, refreshed from
// the store so disabled or deleted accounts lose access at once.
func sessionUser(c *fiber.Ctx, auth *services.AuthService) (*domain.User, error) {
	sid := c.Cookies("sid")
	if sid == "" {
		return nil, nil
	}
	return auth.ForSession(sid).Verified(c.UserContext())
}

func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := sessionUser(c, auth)
		if err != nil {
			return fail(c, "auth.session", err, nil)
		}
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(HTTPError{Message: domain.ErrUnauthenticated.Error(), Kind: "unauthenticated"})
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := sessionUser(c, auth)
		if err != nil {
			return fail(c, "auth.session", err, nil)
		}
		if u == nil || !u.IsAdmin() {
			fields := map[string]any{}
			if u != nil {
				fields["user_id"] = u.ID
			}
			applog.Security(c, "access.denied.admin", fields)
			if u == nil {
				return c.Status(fiber.StatusUnauthorized).JSON(HTTPError{Message: domain.ErrUnauthenticated.Error(), Kind: "unauthenticated"})
			}
			return c.Status(fiber.StatusForbidden).JSON(HTTPError{Message: "access denied", Kind: "forbidden"})
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

// currentUser is the user a Require* guard stored; handlers behind a guard
// can rely on it being set.
func currentUser(c *fiber.Ctx) domain.User {
	if u, ok := c.Locals(userKey).(*domain.User); ok && u != nil {
		return *u
	}
	return domain.User{}
}
