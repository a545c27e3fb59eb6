package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alquitones/internal/domain"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	anon := newHarness(t, quietLimits())

	resp := anon.do(http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	client := anon.fork()
	client.login("lucia@alquitones.com", "cliente123")
	resp = client.do(http.MethodGet, "/api/v1/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decode[apiError](t, resp).Kind)

	admin := anon.fork()
	admin.login("admin@alquitones.com", "admin123")
	resp = admin.do(http.MethodGet, "/api/v1/admin/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decode[[]domain.User](t, resp)
	assert.Len(t, users, 4)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestUserGuardProtectsPersonalRoutes(t *testing.T) {
	h := newHarness(t, quietLimits())
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/favorites"},
		{http.MethodPost, "/api/v1/favorites/1"},
		{http.MethodGet, "/api/v1/reservations/mine"},
		{http.MethodPost, "/api/v1/reservations"},
		{http.MethodPost, "/api/v1/instruments/1/ratings"},
	} {
		resp := h.do(r.method, r.path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}
}

func TestDisabledUserLosesAccessImmediately(t *testing.T) {
	admin := newHarness(t, quietLimits())
	admin.login("admin@alquitones.com", "admin123")
	client := admin.fork()
	u := client.login("mateo@alquitones.com", "cliente123")

	require.Equal(t, http.StatusOK, client.do(http.MethodGet, "/api/v1/favorites", nil).StatusCode)

	resp := admin.do(http.MethodPatch, "/api/v1/admin/users/"+itoa(u.ID), map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, client.do(http.MethodGet, "/api/v1/favorites", nil).StatusCode)
}

func TestAdminCannotDemoteThemselves(t *testing.T) {
	h := newHarness(t, quietLimits())
	me := h.login("admin@alquitones.com", "admin123")

	resp := h.do(http.MethodPatch, "/api/v1/admin/users/"+itoa(me.ID), map[string]any{"role": "client"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = h.do(http.MethodDelete, "/api/v1/admin/users/"+itoa(me.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/admin/stats", nil).StatusCode)
}
