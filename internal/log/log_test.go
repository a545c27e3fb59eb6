package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "alquitones/internal/log"
)

type line struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Path   string         `json:"path"`
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields"`
}

func decode(t *testing.T, buf *bytes.Buffer) []line {
	t.Helper()
	var out []line
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)
		out = append(out, l)
	}
	return out
}

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	applog.Init("test", "debug", false, &buf)

	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		applog.Info(c, "x.view", nil)
		applog.Audit(c, "x.change", map[string]any{"id": 7})
		applog.Security(c, "x.denied", nil)
		applog.Error(c, "x.fail", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	lines := decode(t, &buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "info", lines[0].Level)
	assert.Equal(t, "/x", lines[0].Path)
	assert.Equal(t, "audit", lines[1].Kind)
	assert.EqualValues(t, 7, lines[1].Fields["id"])
	assert.Equal(t, "warn", lines[2].Level)
	assert.Equal(t, "security", lines[2].Kind)
	assert.Equal(t, "error", lines[3].Level)
	assert.Equal(t, "boom", lines[3].Error)
}

func TestSetLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	applog.Init("test", "error", false, &buf)
	defer applog.SetLevel("info")

	applog.Info(nil, "quiet", nil)
	applog.Error(nil, "loud", errors.New("x"), nil)

	lines := decode(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "loud", lines[0].Action)
}
