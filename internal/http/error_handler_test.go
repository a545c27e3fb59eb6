package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alquitones/internal/domain"
	"alquitones/internal/http/handlers"
	"alquitones/internal/remote"
)

func TestMapErrorToHTTP(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{domain.NotFound("instrument", 3), http.StatusNotFound, "not_found"},
		{domain.Conflict("email %s is already registered", "a@b.co"), http.StatusConflict, "conflict"},
		{domain.Invalid("bad"), http.StatusBadRequest, "validation"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{domain.ErrAccountDisabled, http.StatusForbidden, "account_disabled"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: insufficient_stock", domain.ErrUnavailable), http.StatusConflict, "unavailable"},
		{&domain.StorageCorruptionError{Key: "k", Err: errors.New("eof")}, http.StatusInternalServerError, "internal"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
		{fmt.Errorf("%w: http 502", remote.ErrRemoteUnavailable), http.StatusServiceUnavailable, "remote_unavailable"},
	}
	for _, tc := range cases {
		he := handlers.MapErrorToHTTP(tc.err)
		assert.Equal(t, tc.status, he.Status, tc.err.Error())
		assert.Equal(t, tc.kind, he.Kind, tc.err.Error())
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "internal server error", he.Message)
		}
	}
}

func TestCorruptSessionIsAGeneric500(t *testing.T) {
	h := newHarness(t, quietLimits())
	require.NoError(t, h.sessions.Set(context.Background(), sessionPrefix+":broken", []byte("{not json")))
	h.jar["sid"] = "broken"

	var body string
	logs := captureLogs(t, func() {
		resp := h.do(http.MethodGet, "/api/v1/auth/me", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
	})
	assert.Contains(t, body, "internal server error")
	assert.NotContains(t, body, "json")
	assert.NotContains(t, body, "broken")

	e, ok := findLog(logs, "auth.session.fail")
	require.True(t, ok)
	assert.Equal(t, "error", e.Level)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	h := newHarness(t, quietLimits())
	resp := h.do(http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "not_found", decode[apiError](t, resp).Kind)
}

func TestMalformedBodyIsRejected(t *testing.T) {
	h := newHarness(t, quietLimits())
	h.login("lucia@alquitones.com", "cliente123")
	resp := h.do(http.MethodPost, "/api/v1/reservations", `{"instrumentId":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", decode[apiError](t, resp).Kind)

	resp = h.do(http.MethodPost, "/api/v1/reservations", `{"instrumentId":1,"startDate":"10/03/2025","endDate":"2025-03-11","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInputValidation(t *testing.T) {
	h := newHarness(t, quietLimits())
	cases := []struct {
		name, path string
		field      string
	}{
		{"script in q", "/api/v1/instruments?q=%3Cscript%3E", "q"},
		{"non numeric id", "/api/v1/instruments/abc", "instrument"},
		{"negative id", "/api/v1/instruments/-4", "instrument"},
		{"bad category", "/api/v1/instruments?category=x", "category"},
		{"missing start", "/api/v1/instruments/1/availability", "start"},
		{"bad end", "/api/v1/instruments/1/availability?start=2025-03-10&end=mañana", "end"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t, func() {
				resp := h.do(http.MethodGet, tc.path, nil)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, "validation", decode[apiError](t, resp).Kind)
			})
			e, ok := findLog(logs, "validation.fail")
			require.True(t, ok)
			assert.Equal(t, tc.field, e.Fields["field"])
		})
	}

	resp := h.do(http.MethodGet, "/api/v1/instruments/1/availability?start=2025-01-01&end=2026-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, body := range []map[string]string{
		{"username": "x", "email": "x@example.com", "password": "secreto1"},
		{"username": "pepe", "email": "pepe-at-example", "password": "secreto1"},
		{"username": "pepe", "email": "pepe@example.com", "password": "123"},
	} {
		resp := h.do(http.MethodPost, "/api/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestOversizedBody(t *testing.T) {
	lim := quietLimits()
	lim.BodyBytes = 1024
	h := newHarness(t, lim)
	h.do(http.MethodGet, "/healthz", nil)

	big := `{"email":"` + strings.Repeat("a", 4096) + `@x.co","password":"admin123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "test")
	resp, err := h.app.Test(req, -1)
	// fasthttp may refuse the body before the app sees it
	if err != nil {
		return
	}
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
