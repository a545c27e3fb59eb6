package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alquitones/internal/config"
	"alquitones/internal/domain"
	"alquitones/internal/services"
)

// marketplace is a stand-in for the hosted API that records what it served.
type marketplace struct {
	mu   sync.Mutex
	hits map[string]int
	sids []string
}

func (m *marketplace) seen(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[r.Pattern]++
	if c, err := r.Cookie("sid"); err == nil {
		m.sids = append(m.sids, c.Value)
	}
}

func (m *marketplace) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[key]
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newMarketplace(t *testing.T) (*marketplace, *httptest.Server) {
	t.Helper()
	m := &marketplace{hits: map[string]int{}}
	harp := domain.Product{ID: 42, Name: "Arpa Camac", CategoryID: 1, PricePerDay: decimal.NewFromInt(60), Stock: 1,
		Status: domain.StatusAvailable, Images: []string{"/media/arpa.jpg"}, MainImage: "/media/arpa.jpg"}
	day := domain.MustDate("2025-03-10")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/instruments", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusOK, services.Paginate([]domain.Product{harp}, 1, 100))
	})
	mux.HandleFunc("GET /api/v1/instruments/{id}", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		if r.PathValue("id") != "42" {
			reply(w, http.StatusNotFound, map[string]string{"error": "not found: instrument", "kind": "not_found"})
			return
		}
		reply(w, http.StatusOK, harp)
	})
	mux.HandleFunc("GET /api/v1/instruments/{id}/ratings", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusOK, services.RatingSummary{InstrumentID: 42, Count: 1, Average: decimal.NewFromInt(5),
			Ratings: []domain.Rating{{InstrumentID: 42, UserID: 9, Score: 5}}})
	})
	mux.HandleFunc("POST /api/v1/instruments/{id}/ratings", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusCreated, domain.Rating{InstrumentID: 42, UserID: 2, Score: 4})
	})
	mux.HandleFunc("GET /api/v1/instruments/{id}/availability", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusOK, []services.DayAvailability{{Date: day, TotalStock: 1, AvailableStock: 1}})
	})
	mux.HandleFunc("POST /api/v1/reservations", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusCreated, map[string]any{
			"reservation":  domain.Reservation{ID: 900, InstrumentID: 42, UserID: 2, StartDate: day, EndDate: day, Quantity: 1, Status: domain.ReservationActive},
			"availability": services.AvailabilityResult{Valid: true, Start: day, End: day, TotalDays: 1},
		})
	})
	mux.HandleFunc("POST /api/v1/reservations/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		m.seen(r)
		reply(w, http.StatusOK, domain.Reservation{ID: 900, InstrumentID: 42, UserID: 2, Status: domain.ReservationCancelled})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return m, srv
}

func remoteConfig(url string) config.Config {
	return config.Config{SessionPrefix: sessionPrefix, EnrichBatch: 3, RemoteAPIURL: url, RemoteTimeout: 2 * time.Second}
}

func TestRemoteModeServesMarketplace(t *testing.T) {
	m, srv := newMarketplace(t)
	h := newHarnessWith(t, quietLimits(), remoteConfig(srv.URL))

	p := decode[productPage](t, h.do(http.MethodGet, "/api/v1/instruments?q=arpa", nil))
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Arpa Camac", p.Items[0].Name)
	assert.Empty(t, decode[productPage](t, h.do(http.MethodGet, "/api/v1/instruments?q=fender", nil)).Items)

	// instrument 42 only exists remotely
	resp := h.do(http.MethodGet, "/api/v1/instruments/42", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Arpa Camac", decode[domain.Product](t, resp).Name)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/v1/instruments/1", nil).StatusCode)

	sum := decode[services.RatingSummary](t, h.do(http.MethodGet, "/api/v1/instruments/42/ratings", nil))
	assert.Equal(t, 1, sum.Count)

	days := decode[[]services.DayAvailability](t, h.do(http.MethodGet, "/api/v1/instruments/42/availability?start=2025-03-10", nil))
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].AvailableStock)

	h.login("lucia@alquitones.com", "cliente123")
	resp = h.do(http.MethodPost, "/api/v1/reservations", book(42, "2025-03-10", "2025-03-10", 1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decode[createdReservation](t, resp)
	assert.Equal(t, 900, got.Reservation.ID)
	assert.True(t, got.Availability.Valid)

	resp = h.do(http.MethodPost, "/api/v1/reservations/900/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ReservationCancelled, decode[domain.Reservation](t, resp).Status)

	assert.Equal(t, http.StatusCreated,
		h.do(http.MethodPost, "/api/v1/instruments/42/ratings", map[string]any{"score": 4}).StatusCode)

	assert.Equal(t, 2, m.count("GET /api/v1/instruments"))
	assert.Equal(t, 1, m.count("POST /api/v1/reservations"))
	assert.Equal(t, 1, m.count("POST /api/v1/reservations/{id}/cancel"))
	assert.Equal(t, 1, m.count("POST /api/v1/instruments/{id}/ratings"))
	assert.Contains(t, m.sids, h.jar["sid"])

	// nothing was booked in the local store
	assert.Empty(t, h.st.Snapshot().Reservations)
}

func TestRemoteOutageFallsBackForReadsOnly(t *testing.T) {
	var mu sync.Mutex
	writes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mu.Lock()
			writes++
			mu.Unlock()
		}
		reply(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	}))
	t.Cleanup(srv.Close)
	h := newHarnessWith(t, quietLimits(), remoteConfig(srv.URL))

	p := decode[productPage](t, h.do(http.MethodGet, "/api/v1/instruments", nil))
	assert.Equal(t, 9, p.TotalItems)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/v1/instruments/1", nil).StatusCode)

	h.login("lucia@alquitones.com", "cliente123")
	var resp *http.Response
	logs := captureLogs(t, func() {
		resp = h.do(http.MethodPost, "/api/v1/reservations", book(1, "2025-03-10", "2025-03-11", 1))
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "remote_unavailable", decode[apiError](t, resp).Kind)
	_, ok := findLog(logs, "reservation.create.fail")
	assert.True(t, ok)

	mu.Lock()
	assert.Equal(t, 1, writes)
	mu.Unlock()
	assert.Empty(t, h.st.Snapshot().Reservations)
}
