package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
	"alquitones/internal/remote"
)

// HTTPError is the JSON body of every failed request.
type HTTPError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Kind    string `json:"kind"`
}

// MapErrorToHTTP picks the status for a domain error. Anything unrecognised
// is a 500 with a generic message.
func MapErrorToHTTP(err error) HTTPError {
	kind := domain.Kind(err)
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrUnavailable):
		status = fiber.StatusConflict
	case errors.Is(err, remote.ErrRemoteUnavailable):
		return HTTPError{Status: fiber.StatusServiceUnavailable, Message: "marketplace temporarily unavailable", Kind: "remote_unavailable"}
	}
	if status == fiber.StatusInternalServerError {
		return HTTPError{Status: status, Message: "internal server error", Kind: "internal"}
	}
	return HTTPError{Status: status, Message: err.Error(), Kind: kind}
}

// fail writes err as JSON and logs it under action: server faults as errors,
// rejected input and access as security events.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	he := MapErrorToHTTP(err)
	c.Status(he.Status)
	switch {
	case he.Status >= fiber.StatusInternalServerError:
		applog.Error(c, action+".fail", err, fields)
	case he.Status == fiber.StatusNotFound:
	default:
		f := map[string]any{"reason": he.Kind}
		for k, v := range fields {
			f[k] = v
		}
		applog.Security(c, action+".fail", f)
	}
	return c.JSON(he)
}

func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(HTTPError{Message: "invalid " + field, Kind: "validation"})
}

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}
