package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alquitones/internal/metrics"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(metrics.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/metrics", metrics.Handler())

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/items/:id", "200"))
	for i := 0; i < 3; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/items/1", nil))
		require.NoError(t, err)
	}
	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/items/:id", "200"))
	assert.Equal(t, before+3, after)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "alquitones_http_requests_total")
}

func TestLabelsSurviveMixedMethods(t *testing.T) {
	app := fiber.New()
	app.Use(metrics.Middleware())
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
	app.Get("/mixed", ok)
	app.Post("/mixed/check", ok)
	app.Patch("/mixed/users/:id", ok)
	app.Delete("/mixed/favorites/:id", ok)
	app.Get("/metrics", metrics.Handler())

	for i := 0; i < 5; i++ {
		for _, r := range []struct{ method, path string }{
			{"GET", "/mixed"},
			{"POST", "/mixed/check"},
			{"DELETE", "/mixed/favorites/1"},
			{"PATCH", "/mixed/users/1"},
		} {
			_, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
			require.NoError(t, err)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	known := map[string]bool{"GET": true, "POST": true, "PATCH": true, "DELETE": true}
	seen := 0
	for _, mf := range families {
		if mf.GetName() != "alquitones_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "method" {
					assert.True(t, known[lp.GetValue()], "method label %q", lp.GetValue())
					seen++
				}
			}
		}
	}
	assert.Positive(t, seen)
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("PATCH", "/mixed/users/:id", "204")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("DELETE", "/mixed/favorites/:id", "204")))
}
