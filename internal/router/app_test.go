package router

import (
	"net/http"
	"testing"

	"github.com/deppfellow/zrouter/internal/config"
	"github.com/deppfellow/zrouter/internal/handler"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary:       config.Primary{Env: "local"},
			Server:        config.ServerConfig{Port: "8080", ReadTimeout: 1, WriteTimeout: 1, IdleTimeout: 1},
			Router:        config.RouterConfig{Prefix: "/api", SuccessMessage: "ok"},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}

	app, err := NewApp(s, handler.NewHandlers(s))
	require.NoError(t, err)
	return app
}

func TestAppRoutes(t *testing.T) {
	app := newTestApp(t)

	var table []string
	for _, reg := range app.Routes() {
		table = append(table, reg.Method+" "+reg.Path)
	}
	assert.Equal(t, []string{"GET /status", "GET /metrics", "GET /api/session"}, table)

	routes := app.Routes()
	assert.True(t, routes[0].Open && routes[0].Direct)
	assert.Equal(t, "metrics", routes[1].Endpoint)
	assert.False(t, routes[2].Open)
}

func TestAppServesSystemRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := do(app.Echo, http.MethodGet, "/status", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	do(app.Echo, http.MethodGet, "/api/session", nil, "")

	rec = do(app.Echo, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zrouter_router_envelopes_total")
}

func TestAppEnvelopesAPIRoutes(t *testing.T) {
	app := newTestApp(t)

	body := decode(t, do(app.Echo, http.MethodGet, "/api/session", nil, ""))

	assert.Equal(t, float64(200), body["code"])
	assert.Equal(t, "ok", body["msg"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "requestId")
	assert.Contains(t, data, "userId")
}

func TestAppUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := do(app.Echo, http.MethodGet, "/api/missing", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec)["message"])
}
