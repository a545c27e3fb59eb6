package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"alquitones/internal/config"
	"alquitones/internal/domain"
	"alquitones/internal/http/handlers"
	applog "alquitones/internal/log"
	"alquitones/internal/repos"
)

const sessionPrefix = "test:session"

// harness drives the real app like a browser: it keeps cookies and echoes
// the csrf cookie in the X-Csrf-Token header on unsafe requests.
type harness struct {
	t        *testing.T
	app      *fiber.App
	st       *repos.Store
	sessions *repos.MemoryStorage
	jar      map[string]string
}

func quietLimits() handlers.Limits { return handlers.Limits{} }

func newHarness(t *testing.T, lim handlers.Limits) *harness {
	t.Helper()
	return newHarnessWith(t, lim, config.Config{SessionPrefix: sessionPrefix, EnrichBatch: 3})
}

func newHarnessWith(t *testing.T, lim handlers.Limits, cfg config.Config) *harness {
	t.Helper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st, err := repos.OpenStore(context.Background(), repos.NewMemoryStorage(), repos.Options{
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	sessions := repos.NewMemoryStorage()
	app := handlers.NewApp(handlers.NewDeps(st, sessions, cfg), lim)
	return &harness{t: t, app: app, st: st, sessions: sessions, jar: map[string]string{}}
}

// fork shares the app and store but has its own cookies.
func (h *harness) fork() *harness {
	return &harness{t: h.t, app: h.app, st: h.st, sessions: h.sessions, jar: map[string]string{}}
}

func (h *harness) do(method, path string, body any) *http.Response {
	h.t.Helper()
	unsafe := method != http.MethodGet && method != http.MethodHead
	if unsafe && h.jar["csrf_"] == "" {
		h.do(http.MethodGet, "/healthz", nil)
	}

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	case []byte:
		rdr = bytes.NewReader(b)
	default:
		blob, err := json.Marshal(b)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(blob)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.jar {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if unsafe {
		req.Header.Set("X-Csrf-Token", h.jar["csrf_"])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(h.jar, c.Name)
			continue
		}
		h.jar[c.Name] = c.Value
	}
	return resp
}

func (h *harness) login(email, password string) domain.User {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, resp.StatusCode, "login %s", email)
	return decode[domain.User](h.t, resp)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type logEntry struct {
	Level  string         `json:"level"`
	Kind   string         `json:"kind"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs redirects the application logger while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	applog.SetOutput(w)
	defer applog.SetOutput(io.Discard)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(line), &e) == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func itoa(i int) string { return strconv.Itoa(i) }
