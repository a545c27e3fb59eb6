package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "alquitones/internal/log"
	"alquitones/internal/metrics"
)

// Limits are request budgets per client IP. Zero disables a limiter.
type Limits struct {
	PerMinute    int // every route
	Login        int // per 10 minutes
	Availability int // per 30 seconds
	BodyBytes    int
	AccessLog    bool
}

func DefaultLimits() Limits {
	return Limits{PerMinute: 60, Login: 5, Availability: 15, BodyBytes: 1 << 20, AccessLog: true}
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps, lim Limits) *fiber.App {
	if lim.BodyBytes <= 0 {
		lim.BodyBytes = 1 << 20
	}
	app := fiber.New(fiber.Config{
		BodyLimit: lim.BodyBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(HTTPError{Message: fe.Message, Kind: "request"})
			}
			// Avoid leaking internals
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(HTTPError{Message: "internal server error", Kind: "internal"})
		},
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	if lim.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(metrics.Middleware())
	if lim.PerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        lim.PerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/healthz" || p == "/metrics" || strings.HasPrefix(p, "/media/")
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(HTTPError{Message: "rate limit exceeded, retry soon", Kind: "rate_limited"})
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Expiration:     time.Hour,
		// Server-to-server clients send a custom header, which browsers
		// cannot add cross-origin without a preflight we never grant.
		Next: func(c *fiber.Ctx) bool {
			return strings.TrimSpace(c.Get(fiber.HeaderXRequestedWith)) != ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(HTTPError{Message: "security check failed, refresh and retry", Kind: "csrf"})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", metrics.Handler())
	if d.MediaDir != "" {
		app.Get("/media/*", Media(d.MediaDir))
	}

	Routes(app, d, lim)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(HTTPError{Message: "route not found", Kind: "not_found"})
	})
	return app
}

// Routes mounts the /api/v1 surface.
func Routes(app *fiber.App, d *Deps, lim Limits) {
	api := app.Group("/api/v1")
	user := RequireUser(d.Auth)

	// Auth (login throttled)
	login := []fiber.Handler{}
	if lim.Login > 0 {
		login = append(login, limiter.New(limiter.Config{
			Max:        lim.Login,
			Expiration: 10 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|login"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(HTTPError{Message: "too many attempts, try again later", Kind: "rate_limited"})
			},
		}))
	}
	api.Post("/auth/login", append(login, d.AuthHandler.Login)...)
	api.Post("/auth/logout", d.AuthHandler.Logout)
	api.Post("/auth/register", d.AuthHandler.Register)
	api.Get("/auth/me", user, d.AuthHandler.Me)

	// Catalog
	avail := []fiber.Handler{}
	if lim.Availability > 0 {
		avail = append(avail, limiter.New(limiter.Config{
			Max:        lim.Availability,
			Expiration: 30 * time.Second,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|avail"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.availability.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(HTTPError{Message: "rate limit exceeded, retry soon", Kind: "rate_limited"})
			},
		}))
	}
	api.Get("/instruments", d.SearchHandler.List)
	api.Get("/instruments/:id", d.ProductHandler.Detail)
	api.Get("/instruments/:id/availability", append(avail, d.InventoryHandler.Daily)...)
	api.Post("/availability/check", append(avail, d.InventoryHandler.Check)...)
	api.Get("/instruments/:id/ratings", d.ProductHandler.ListRatings)
	api.Post("/instruments/:id/ratings", user, d.ProductHandler.Rate)
	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/counts", d.CategoryHandler.Counts)
	api.Get("/specifications", d.CategoryHandler.Specifications)

	// Favorites & reservations
	api.Get("/favorites", user, d.FavoritesHandler.List)
	api.Post("/favorites/:id", user, d.FavoritesHandler.Save)
	api.Delete("/favorites/:id", user, d.FavoritesHandler.Unsave)
	api.Post("/reservations", user, d.ReservationHandler.Create)
	api.Get("/reservations/mine", user, d.ReservationHandler.Mine)
	api.Post("/reservations/:id/cancel", user, d.ReservationHandler.Cancel)

	// Admin
	a := d.AdminHandler
	admin := api.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/instruments", d.SearchHandler.List)
	admin.Post("/instruments", a.CreateInstrument)
	admin.Patch("/instruments/:id", a.UpdateInstrument)
	admin.Delete("/instruments/:id", a.DeleteInstrument)
	admin.Get("/categories", d.CategoryHandler.List)
	admin.Post("/categories", a.CreateCategory)
	admin.Patch("/categories/:id", a.UpdateCategory)
	admin.Delete("/categories/:id", a.DeleteCategory)
	admin.Get("/specifications", d.CategoryHandler.Specifications)
	admin.Post("/specifications", a.CreateSpecification)
	admin.Patch("/specifications/:id", a.UpdateSpecification)
	admin.Delete("/specifications/:id", a.DeleteSpecification)
	admin.Get("/users", a.ListUsers)
	admin.Get("/users/:id", a.GetUser)
	admin.Post("/users", a.CreateUser)
	admin.Patch("/users/:id", a.UpdateUser)
	admin.Delete("/users/:id", a.DeleteUser)
	admin.Get("/reservations", a.Reservations)
	admin.Post("/reservations/expire", a.ExpireReservations)
	admin.Get("/stats", a.Stats)
}
