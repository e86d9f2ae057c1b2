package router

import (
	"net/http"

	"github.com/deppfellow/zrouter/internal/handler"
)

// registerSystemRoutes registers the operational routes. Both are open and
// direct: monitors get plain responses, not envelopes.
func registerSystemRoutes(r *Router, h *handler.Handlers) error {
	err := r.AddResource("/status", h.Health, MethodFlags{
		Method: http.MethodGet,
		Open:   true,
		Direct: true,
	})
	if err != nil {
		return err
	}

	return r.Add("/metrics", h.Metrics.Get, Open(), Direct(), Endpoint("metrics"))
}
