package handler

import (
	"net/http"

	"github.com/deppfellow/zrouter/internal/params"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the default Prometheus registry.
type MetricsHandler struct {
	Handler
	exposition http.Handler
}

func NewMetricsHandler(s *server.Server) *MetricsHandler {
	return &MetricsHandler{
		Handler:    NewHandler(s),
		exposition: promhttp.Handler(),
	}
}

// Get writes the exposition itself; register it as a direct route.
func (h *MetricsHandler) Get(c echo.Context, _ params.Params) (any, error) {
	h.exposition.ServeHTTP(c.Response(), c.Request())
	return nil, nil
}
